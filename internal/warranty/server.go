package warranty

import (
	"context"
	"net/http"
	"time"

	"github.com/danmuck/fulfillment/internal/node"
	"github.com/gin-gonic/gin"
)

type Server struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	Appeared time.Time `json:"appeared"`

	engine *Engine
	router *gin.Engine
}

var _ node.Node = (*Server)(nil)

func Appear(id, addr string, corsOrigins []string, engine *Engine) *Server {
	return &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		engine:   engine,
		router:   node.Appear(id, corsOrigins),
	}
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "warranty"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

type decideRequest struct {
	Reason         string `json:"reason" binding:"required"`
	AvailableCount *int   `json:"availableCount" binding:"required,min=0"`
}

type verdictResponse struct {
	WarrantyDate string   `json:"warrantyDate"`
	Decision     Decision `json:"decision"`
}

type statusResponse struct {
	ItemUID      string `json:"itemUid"`
	WarrantyDate string `json:"warrantyDate"`
	Status       Status `json:"status"`
}

func (s *Server) RegisterRoutes() {
	node.RegisterManagement(s.router, s.ID, s.Appeared)
	api := s.router.Group(node.APIRoot)

	api.GET("/warranty/:itemUid", func(c *gin.Context) {
		w, err := s.engine.StatusOf(c.Request.Context(), c.Param("itemUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, statusResponse{
			ItemUID:      w.ItemUID,
			WarrantyDate: w.Date.Format(node.DateLayout),
			Status:       w.Status,
		})
	})

	api.POST("/warranty/:itemUid/warranty", func(c *gin.Context) {
		var req decideRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		v, err := s.engine.Decide(c.Request.Context(), c.Param("itemUid"), req.Reason, *req.AvailableCount)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, verdictResponse{
			WarrantyDate: v.WarrantyDate.Format(node.DateLayout),
			Decision:     v.Decision,
		})
	})

	api.POST("/warranty/:itemUid", func(c *gin.Context) {
		if _, err := s.engine.Open(c.Request.Context(), c.Param("itemUid")); err != nil {
			node.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.DELETE("/warranty/:itemUid", func(c *gin.Context) {
		if err := s.engine.Close(c.Request.Context(), c.Param("itemUid")); err != nil {
			node.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) Serve(ctx context.Context) error {
	s.RegisterRoutes()
	return node.Serve(ctx, s.Addr, s.router)
}
