package inventory

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

	ledger *Ledger
	router *gin.Engine
}

var _ node.Node = (*Server)(nil)

func Appear(id, addr string, corsOrigins []string, ledger *Ledger) *Server {
	return &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		ledger:   ledger,
		router:   node.Appear(id, corsOrigins),
	}
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "inventory"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

type reserveRequest struct {
	OrderUID string `json:"orderUid" binding:"required"`
	Model    string `json:"model" binding:"required"`
	Size     string `json:"size" binding:"required"`
}

type reserveResponse struct {
	OrderItemUID string `json:"orderItemUid"`
	OrderUID     string `json:"orderUid"`
	Model        string `json:"model"`
	Size         string `json:"size"`
}

type itemInfoResponse struct {
	Model string `json:"model"`
	Size  string `json:"size"`
}

type claimRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type verdictResponse struct {
	Decision     string `json:"decision"`
	WarrantyDate string `json:"warrantyDate"`
}

type itemResponse struct {
	ID             int64  `json:"id"`
	Model          string `json:"model"`
	Size           string `json:"size"`
	AvailableCount int    `json:"availableCount"`
}

func (s *Server) RegisterRoutes() {
	node.RegisterManagement(s.router, s.ID, s.Appeared)
	api := s.router.Group(node.APIRoot)

	api.POST("/warehouse", func(c *gin.Context) {
		var req reserveRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		placed, err := s.ledger.Reserve(c.Request.Context(), req.Model, req.Size, req.OrderUID)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, reserveResponse{
			OrderItemUID: placed.ItemUID,
			OrderUID:     placed.OrderUID,
			Model:        placed.Model,
			Size:         placed.Size,
		})
	})

	api.GET("/warehouse/:itemUid", func(c *gin.Context) {
		info, err := s.ledger.Lookup(c.Request.Context(), c.Param("itemUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, itemInfoResponse{Model: info.Model, Size: info.Size})
	})

	api.POST("/warehouse/:itemUid/warranty", func(c *gin.Context) {
		var req claimRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		v, err := s.ledger.WarrantyContext(c.Request.Context(), c.Param("itemUid"), req.Reason)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, verdictResponse{
			Decision:     string(v.Decision),
			WarrantyDate: v.WarrantyDate.Format(node.DateLayout),
		})
	})

	api.DELETE("/warehouse/:itemUid", func(c *gin.Context) {
		if err := s.ledger.Release(c.Request.Context(), c.Param("itemUid")); err != nil {
			node.Respond(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/items", func(c *gin.Context) {
		items, err := s.ledger.Items(c.Request.Context())
		if err != nil {
			node.Respond(c, err)
			return
		}
		out := make([]itemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, itemResponse{
				ID:             item.ID,
				Model:          item.Model,
				Size:           item.Size,
				AvailableCount: item.AvailableCount,
			})
		}
		c.JSON(http.StatusOK, out)
	})
}

func (s *Server) Serve(ctx context.Context) error {
	s.RegisterRoutes()
	return node.Serve(ctx, s.Addr, s.router)
}
