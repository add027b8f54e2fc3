package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Honestpuck/jss-tools/pkg/compliance"
	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/jss"
	"github.com/Honestpuck/jss-tools/pkg/normalize"
	"github.com/Honestpuck/jss-tools/pkg/schema"
	"github.com/Honestpuck/jss-tools/pkg/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors to HTTP statuses. Malformed values are the
// caller's fault on writes and the server's fault on reads.
func statusFor(err error, write bool) int {
	switch {
	case errors.Is(err, schema.ErrUnknownResource), errors.Is(err, jss.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, normalize.ErrUnknownKey),
		errors.Is(err, normalize.ErrKindMismatch):
		return http.StatusBadRequest
	case write && errors.Is(err, convert.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoHistory):
		return http.StatusNotImplemented
	case errors.Is(err, jss.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (s *HTTP) fail(c *gin.Context, err error, write bool) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err, write), gin.H{"error": err.Error()})
}

// readChanges decodes a PATCH body of key to raw string value.
func (s *HTTP) readChanges(c *gin.Context) (map[string]string, bool) {
	reader, err := getBodyReader(c.Request)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return nil, false
	}
	defer reader.Close()

	var changes map[string]string
	dec := json.NewDecoder(io.LimitReader(reader, s.config.MaxBodyBytes))
	if err := dec.Decode(&changes); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object of string values"})
		return nil, false
	}
	if len(changes) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no changes"})
		return nil, false
	}
	return changes, true
}

func (s *HTTP) getRecordHandler(c *gin.Context) {
	n, err := s.service.Record(c.Request.Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *HTTP) patchRecordHandler(c *gin.Context) {
	changes, ok := s.readChanges(c)
	if !ok {
		return
	}
	n, err := s.service.Update(c.Request.Context(), c.Param("resource"), c.Param("id"), changes)
	if err != nil {
		s.fail(c, err, true)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (s *HTTP) getAttributesHandler(c *gin.Context) {
	attrs, err := s.service.Attributes(c.Request.Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

func (s *HTTP) patchAttributesHandler(c *gin.Context) {
	changes, ok := s.readChanges(c)
	if !ok {
		return
	}
	attrs, err := s.service.UpdateAttributes(c.Request.Context(), c.Param("resource"), c.Param("id"), changes)
	if err != nil {
		s.fail(c, err, true)
		return
	}
	c.JSON(http.StatusOK, attrs)
}

// applicationsHandler lists installed applications. ?all=true keeps the
// applications macOS ships with; ?ignore=a,b replaces the ignore list.
func (s *HTTP) applicationsHandler(c *gin.Context) {
	var ignore []string
	if v := c.Query("ignore"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				ignore = append(ignore, name)
			}
		}
	}
	if all, _ := strconv.ParseBool(c.Query("all")); all {
		ignore = []string{}
	}
	apps, err := s.service.Applications(c.Request.Context(), c.Param("id"), ignore)
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *HTTP) groupsHandler(c *gin.Context) {
	groups, err := s.service.Groups(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *HTTP) complianceHandler(c *gin.Context) {
	findings, err := s.service.Compliance(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, false)
		return
	}
	if findings == nil {
		findings = []compliance.Finding{}
	}
	c.JSON(http.StatusOK, gin.H{
		"compliant": len(findings) == 0,
		"findings":  findings,
	})
}

func (s *HTTP) historyHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	findings, err := s.service.History(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, findings)
}

func (s *HTTP) sweepHandler(c *gin.Context) {
	res, err := s.service.Sweep(c.Request.Context())
	if err != nil {
		s.fail(c, err, false)
		return
	}
	c.JSON(http.StatusOK, res)
}
