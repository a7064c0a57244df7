package server

import (
	stdjson "encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/cantara/bragi/sbragi"
	"github.com/gin-gonic/gin"

	"github.com/cantara/playbookgen/ansible"
	"github.com/cantara/playbookgen/generators"
	"github.com/cantara/playbookgen/output"
)

type moduleRequest struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

type playbookRequest struct {
	Name        string          `json:"name"`
	Hosts       string          `json:"hosts"`
	GatherFacts *bool           `json:"gather_facts"`
	Vars        map[string]any  `json:"vars"`
	Modules     []moduleRequest `json:"modules"`
}

func (s *Server) health(c *gin.Context) {
	s.lock.RLock()
	n := len(s.lib.List())
	s.lock.RUnlock()
	writeJSON(c, http.StatusOK, gin.H{"status": "ok", "modules": n})
}

func (s *Server) listModules(c *gin.Context) {
	s.lock.RLock()
	infos := s.lib.Describe()
	s.lock.RUnlock()
	writeJSON(c, http.StatusOK, infos)
}

func (s *Server) getModule(c *gin.Context) {
	s.lock.RLock()
	m, err := s.lib.Get(c.Param("name"))
	s.lock.RUnlock()
	if err != nil {
		errorResponse(c, err.Error(), statusOf(err))
		return
	}
	writeJSON(c, http.StatusOK, m.Info())
}

func (s *Server) buildPlaybook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errorResponse(c, err.Error(), http.StatusBadRequest)
		return
	}
	var req playbookRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		errorResponse(c, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	s.lock.RLock()
	b := generators.New(s.lib, s.outputDir)
	b.SetName(req.Name)
	if req.Hosts != "" {
		b.SetHosts(req.Hosts)
	}
	if req.GatherFacts != nil {
		b.SetGatherFacts(*req.GatherFacts)
	}
	b.AddVars(ansible.VarsFromMap(numbers(req.Vars).(map[string]any)))
	for _, m := range req.Modules {
		b.AddModule(m.Name, numbers(m.Parameters).(map[string]any))
	}
	data, err := b.Serialize()
	s.lock.RUnlock()
	if err != nil {
		log.WithError(err).Debug("while building playbook", "name", req.Name)
		errorResponse(c, err.Error(), statusOf(err))
		return
	}
	filename := output.GenerateFilename(output.SanitizeFilename(req.Name), false, output.DefaultExtension)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/yaml", data)
}

func (s *Server) reload(c *gin.Context) {
	s.lock.Lock()
	err := s.lib.Reload()
	n := len(s.lib.List())
	s.lock.Unlock()
	if err != nil {
		log.WithError(err).Error("while reloading module library")
		errorResponse(c, err.Error(), statusOf(err))
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "reloaded", "modules": n})
}

// numbers replaces json numbers with int64, or float64 when not integral, so they
// render and serialize as numbers. A nil map gives an empty one.
func numbers(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = numbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = numbers(val)
		}
		return out
	case stdjson.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}
