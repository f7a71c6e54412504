// Package api serves the report backend routes for local development. The
// data lives in memory and starts from the bundled samples.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/api/client"
	"github.com/reportconsole/internal/auth"
	"github.com/reportconsole/internal/config"
	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/validate"
)

type Server struct {
	store  *Store
	cfg    config.ServerConfig
	log    *zap.Logger
	router *gin.Engine
}

func NewServer(store *Store, cfg config.ServerConfig, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	server := &Server{
		store:  store,
		cfg:    cfg,
		log:    log,
		router: gin.New(),
	}
	server.router.Use(gin.Recovery(), requestLogger(log))
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("")
	if s.cfg.Auth {
		api.Use(auth.Middleware([]byte(s.cfg.JWTSecret)))
	}

	api.POST(client.PathHasApplicationAccess, s.hasApplicationAccess)
	api.POST(client.PathGetSetupData, s.getSetupData)
	api.POST(client.PathGetReports, s.getReports)
	api.POST(client.PathGetReport, s.getReport)
	api.POST(client.PathCreateReport, s.createReport)
	api.POST(client.PathSaveReport, s.saveReport)
	api.POST(client.PathCheckSQLSyntax, s.checkSQLSyntax)
	api.POST(client.PathCheckValidPath, s.checkValidPath)
	api.POST(client.PathRescheduleReport, s.rescheduleReport)
	api.POST(client.PathActiveSuspendReport, s.activeSuspendReport)

	api.POST(client.PathGetUsers, s.getUsers)
	api.POST(client.PathGetUser, s.getUser)
	api.POST(client.PathCreateUser, s.adminOnly(), s.createUser)
	api.PUT(client.PathUpdateUser+"/:id", s.adminOnly(), s.updateUser)
	api.POST(client.PathDeleteUser+"/:id", s.adminOnly(), s.deleteUser)

	api.POST(client.PathGetDatabases, s.getDatabases)
	api.POST(client.PathSaveDatabase, s.adminOnly(), s.saveDatabase)
}

func (s *Server) adminOnly() gin.HandlerFunc {
	if !s.cfg.Auth {
		return func(c *gin.Context) { c.Next() }
	}
	return auth.RequireAdmin()
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info("dev server listening", zap.Int("port", s.cfg.Port), zap.Bool("auth", s.cfg.Auth))
	return s.router.Run(fmt.Sprintf(":%d", s.cfg.Port))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
	}
}

func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var verr *validate.ValidationError
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errSuspended):
		status = http.StatusConflict
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
	c.Abort()
}

func (s *Server) hasApplicationAccess(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hasAccess": true})
}

func (s *Server) getSetupData(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Setup())
}

func (s *Server) getReports(c *gin.Context) {
	q := models.DefaultReportQueryOptions()
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, s.store.Reports(q))
}

func (s *Server) getReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	edit, err := s.store.Report(id)
	if err != nil {
		abortWith(c, err)
		return
	}
	edit.Report.HasEditAccess = c.Query("isAdmin") == "1"
	c.JSON(http.StatusOK, edit)
}

func (s *Server) bindReport(c *gin.Context) (models.ReportComplex, bool) {
	var r models.ReportComplex
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return r, false
	}
	if err := validate.Report(models.FromComplex(r)); err != nil {
		abortWith(c, err)
		return r, false
	}
	return r, true
}

func (s *Server) createReport(c *gin.Context) {
	r, ok := s.bindReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.CreateReport(r))
}

func (s *Server) saveReport(c *gin.Context) {
	r, ok := s.bindReport(c)
	if !ok {
		return
	}
	saved, err := s.store.SaveReport(r)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

var sqlVerbs = []string{"SELECT", "WITH", "EXEC"}

// checkSQLSyntax accepts read statements only. Rejections are answered with
// 200 and the reason in SQLErrorMsg.
func (s *Server) checkSQLSyntax(c *gin.Context) {
	var req models.SQLCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := models.ProcessReportQuery{ProcessStatus: 1}
	sql := strings.TrimSpace(req.SQL)
	first := strings.ToUpper(strings.SplitN(sql, " ", 2)[0])
	switch {
	case sql == "":
		res = rejectSQL("SQL statement is empty")
	case !containsVerb(first):
		res = rejectSQL(fmt.Sprintf("Statement must start with SELECT, WITH or EXEC, found %q", first))
	default:
		if _, ok := s.store.Connection(req.DatabaseConnectionID); !ok {
			res = rejectSQL(fmt.Sprintf("Unknown database connection %d", req.DatabaseConnectionID))
		}
	}
	c.JSON(http.StatusOK, res)
}

func rejectSQL(msg string) models.ProcessReportQuery {
	res := models.ProcessReportQuery{ProcessStatus: 0}
	res.SQLErrorMsg.SetValid(msg)
	return res
}

func containsVerb(word string) bool {
	for _, v := range sqlVerbs {
		if word == v {
			return true
		}
	}
	return false
}

func (s *Server) checkValidPath(c *gin.Context) {
	var e models.Export
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	loc := strings.TrimSpace(e.Location.String)
	switch {
	case loc == "":
		c.JSON(http.StatusOK, models.PathCheck{Message: "Export location is required"})
	case !filepath.IsAbs(loc) && !strings.HasPrefix(loc, `\\`) && !strings.HasPrefix(loc, "/"):
		c.JSON(http.StatusOK, models.PathCheck{Message: fmt.Sprintf("Export location %q is not an absolute path", loc)})
	case strings.TrimSpace(e.Name.String) == "":
		c.JSON(http.StatusOK, models.PathCheck{Message: "Export name is required"})
	default:
		c.JSON(http.StatusOK, models.PathCheck{IsValid: true, Message: "Path is valid"})
	}
}

func (s *Server) rescheduleReport(c *gin.Context) {
	var r models.ReportComplex
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Reschedule(r.Report.ID); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, "Rescheduled")
}

func (s *Server) activeSuspendReport(c *gin.Context) {
	var req models.SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.SetSuspended(req.Report.Report.ID, req.SuspendFlag); err != nil {
		abortWith(c, err)
		return
	}
	status := "Activated"
	if req.SuspendFlag {
		status = "Suspended"
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) getUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Users())
}

func (s *Server) getUser(c *gin.Context) {
	var req struct {
		ID int `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	edit, err := s.store.User(req.ID)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, edit)
}

// bindUser accepts either a UserEdit or a bare UserItem.
func (s *Server) bindUser(c *gin.Context) (models.UserComplex, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.UserComplex{}, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.UserComplex{}, false
	}

	var u models.UserComplex
	if _, nested := fields["User"]; nested {
		var edit models.UserEdit
		err = json.Unmarshal(raw, &edit)
		u = edit.User
	} else {
		err = json.Unmarshal(raw, &u.User)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.UserComplex{}, false
	}
	if err := validate.User(u.User); err != nil {
		abortWith(c, err)
		return models.UserComplex{}, false
	}
	return u, true
}

func (s *Server) createUser(c *gin.Context) {
	u, ok := s.bindUser(c)
	if !ok {
		return
	}
	id := s.store.CreateUser(u)
	c.JSON(http.StatusOK, fmt.Sprintf("Created user %d", id))
}

func (s *Server) updateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	u, ok := s.bindUser(c)
	if !ok {
		return
	}
	if err := s.store.UpdateUser(id, u); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, "Updated")
}

func (s *Server) deleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, "Deleted")
}

func (s *Server) getDatabases(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Databases())
}

func (s *Server) saveDatabase(c *gin.Context) {
	var dc models.DatabaseConnection
	if err := c.ShouldBindJSON(&dc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Database(dc); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, s.store.SaveDatabase(dc))
}
