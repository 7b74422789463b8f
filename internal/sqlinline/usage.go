package sqlinline

const QInsertUsageEvent = `--sql a25e8c17-4d3f-4b69-9c02-7e1fa8d45b36
insert into usage_events(id, request_id, tool, success, latency_ms, created_at, properties)
values (gen_random_uuid(), nullif($1, '')::text, $2::text, $3::boolean, $4::int, now(), coalesce($5::jsonb, '{}'::jsonb));
`

const QSelectUsageLast24h = `--sql 5d9b3e72-8a14-4c0d-bf67-2c4e1a9d8f03
select tool, count(*) filter (where success) as ok, count(*) filter (where not success) as failed
from usage_events
where created_at > now() - interval '24 hours'
group by tool
order by tool;
`
