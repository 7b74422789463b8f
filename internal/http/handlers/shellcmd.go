package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentstudio/internal/domain"
)

type shellcmdRequest struct {
	Task string `json:"task"`
}

// ShellCmd translates a natural-language task into a shell command with an
// explanation.
func (a *App) ShellCmd(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req shellcmdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		a.fail(w, fmt.Errorf("%w: task is required", domain.ErrInvalidInput))
		return
	}

	result, err := a.ShellGen.Generate(r.Context(), req.Task)
	a.record(r, "shellcmd", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, result)
}
