package sqlinline

const QSelectAPIKey = `--sql 3f1c9a4e-2d6b-4b0f-9e1a-8c5d7f2a6b91
select token
from api_credentials
where provider = $1::text
limit 1;
`

const QUpsertAPIKey = `--sql b7e2d410-5a8c-4f6e-bd39-1f0c4a9e7d22
insert into api_credentials (id, provider, token, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, now(), now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`

const QDeleteAPIKey = `--sql 9c4a1f83-6e2d-4b7a-8f50-d3b6c1e9a574
delete from api_credentials
where provider = $1::text;
`
