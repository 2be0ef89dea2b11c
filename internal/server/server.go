package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"eurosom/internal"
	"eurosom/internal/connectors"
	"eurosom/internal/pipeline"
	"eurosom/internal/sheets"
	"eurosom/internal/util"
)

type Viewer interface {
	View(ctx context.Context, force bool) sheets.View
}

type OrderAppender interface {
	Append(ctx context.Context, order pipeline.NewOrder) (internal.RawRow, error)
}

type Server struct {
	viewer Viewer
	orders OrderAppender
	engine *gin.Engine
}

func New(viewer Viewer, orders OrderAppender) *Server {
	s := &Server{viewer: viewer, orders: orders, engine: gin.New()}
	s.engine.Use(gin.Logger(), gin.Recovery())

	s.engine.GET("/healthz", s.health)
	api := s.engine.Group("/api")
	api.GET("/orders", s.listOrders)
	api.POST("/orders", s.appendOrder)
	api.GET("/metrics", s.metrics)
	api.GET("/groups/:key", s.groups)
	api.POST("/refresh", s.refresh)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("http listening addr=%s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listOrders(c *gin.Context) {
	view := s.viewer.View(c.Request.Context(), queryBool(c, "refresh"))
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	rows := pipeline.Filter(view.Rows, criteria)

	body := viewHeader(view)
	body["count"] = len(rows)
	body["rows"] = rows
	body["columns"] = view.Resolution.Map()
	c.JSON(http.StatusOK, body)
}

func (s *Server) metrics(c *gin.Context) {
	view := s.viewer.View(c.Request.Context(), queryBool(c, "refresh"))
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	body := viewHeader(view)
	body["summary"] = pipeline.Summarize(pipeline.Filter(view.Rows, criteria))
	c.JSON(http.StatusOK, body)
}

func (s *Server) groups(c *gin.Context) {
	key := pipeline.GroupKey(c.Param("key"))
	view := s.viewer.View(c.Request.Context(), queryBool(c, "refresh"))
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	groups, err := pipeline.GroupBy(pipeline.Filter(view.Rows, criteria), key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": err.Error(), "keys": pipeline.GroupKeys()})
		return
	}

	body := viewHeader(view)
	body["key"] = key
	body["groups"] = groups
	c.JSON(http.StatusOK, body)
}

func (s *Server) refresh(c *gin.Context) {
	view := s.viewer.View(c.Request.Context(), true)
	body := viewHeader(view)
	body["summary"] = view.Summary
	c.JSON(http.StatusOK, body)
}

type orderRequest struct {
	Client       string `json:"client"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Salesperson  string `json:"salesperson"`
	Status       string `json:"status"`
	Amount       any    `json:"amount"`
	Hours        any    `json:"hours"`
	OrderDate    string `json:"orderDate"`
	InstallDate  string `json:"installDate"`
	Anticipation bool   `json:"anticipation"`
	DelayType    string `json:"delayType"`
}

func (r orderRequest) toOrder() (pipeline.NewOrder, error) {
	order := pipeline.NewOrder{
		Client:       r.Client,
		City:         r.City,
		PostalCode:   r.PostalCode,
		Salesperson:  r.Salesperson,
		Status:       r.Status,
		Amount:       util.ParseAmount(r.Amount),
		Hours:        util.ParseAmount(r.Hours),
		Anticipation: r.Anticipation,
		DelayType:    r.DelayType,
	}
	if strings.TrimSpace(r.OrderDate) != "" {
		d := util.ParseDayFirst(r.OrderDate)
		if d == nil {
			return order, fmt.Errorf("invalid orderDate: %q", r.OrderDate)
		}
		order.OrderDate = *d
	}
	if strings.TrimSpace(r.InstallDate) != "" {
		d := util.ParseDayFirst(r.InstallDate)
		if d == nil {
			return order, fmt.Errorf("invalid installDate: %q", r.InstallDate)
		}
		order.InstallDate = d
	}
	return order, order.Validate()
}

func (s *Server) appendOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}
	order, err := req.toOrder()
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	row, err := s.orders.Append(c.Request.Context(), order)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"row": row})
	case errors.Is(err, pipeline.ErrMissingClient), errors.Is(err, pipeline.ErrMissingOrderDate):
		sendError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, connectors.ErrReadOnly):
		sendError(c, http.StatusConflict, err.Error())
	default:
		sendError(c, http.StatusBadGateway, err.Error())
	}
}

func viewHeader(view sheets.View) gin.H {
	body := gin.H{
		"empty":     view.Empty(),
		"fromCache": view.FromCache,
	}
	if !view.FetchedAt.IsZero() {
		body["fetchedAt"] = view.FetchedAt.UTC().Format(time.RFC3339)
	}
	if view.Err != nil {
		body["loadError"] = view.Err.Error()
	}
	return body
}

func criteriaFromQuery(c *gin.Context) (pipeline.Criteria, error) {
	criteria := pipeline.Criteria{
		Query:            c.Query("q"),
		FiscalYear:       strings.TrimSpace(c.Query("fiscal_year")),
		Salesperson:      c.Query("salesperson"),
		Department:       c.Query("department"),
		AnticipationOnly: queryBool(c, "anticipation"),
	}
	if alert := strings.ToUpper(strings.TrimSpace(c.Query("alert"))); alert != "" {
		category := internal.AlertCategory(alert)
		if !knownAlert(category) {
			return criteria, fmt.Errorf("unsupported alert: %s", alert)
		}
		criteria.Alert = category
	}
	return criteria, nil
}

func knownAlert(category internal.AlertCategory) bool {
	switch category {
	case internal.AlertUrgent, internal.AlertLate, internal.AlertUpcoming,
		internal.AlertFarHorizon, internal.AlertAwaitingSchedule, internal.AlertNone:
		return true
	}
	return false
}

func queryBool(c *gin.Context, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "yes", "oui":
		return true
	}
	return false
}

func sendError(c *gin.Context, status int, message string) {
	fmt.Printf("http error status=%d method=%s path=%s: %s\n", status, c.Request.Method, c.Request.URL.Path, message)
	c.JSON(status, gin.H{"error": true, "message": message})
}
