package storefront

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

	store  *Storefront
	router *gin.Engine
}

var _ node.Node = (*Server)(nil)

func Appear(id, addr string, corsOrigins []string, store *Storefront) *Server {
	return &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		store:    store,
		router:   node.Appear(id, corsOrigins),
	}
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "storefront"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

type purchaseRequest struct {
	Model string `json:"model" binding:"required"`
	Size  string `json:"size" binding:"required"`
}

type purchaseResponse struct {
	OrderUID string `json:"orderUid"`
}

type claimRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type verdictResponse struct {
	Decision     string `json:"decision"`
	WarrantyDate string `json:"warrantyDate"`
}

type orderResponse struct {
	OrderUID       string `json:"orderUid"`
	Date           string `json:"date"`
	Model          string `json:"model"`
	Size           string `json:"size"`
	WarrantyDate   string `json:"warrantyDate"`
	WarrantyStatus string `json:"warrantyStatus"`
}

func responseOf(v OrderView) orderResponse {
	return orderResponse{
		OrderUID:       v.OrderUID,
		Date:           v.Date.Format(node.DateLayout),
		Model:          v.Model,
		Size:           v.Size,
		WarrantyDate:   v.WarrantyDate.Format(node.DateLayout),
		WarrantyStatus: string(v.WarrantyStatus),
	}
}

func (s *Server) RegisterRoutes() {
	node.RegisterManagement(s.router, s.ID, s.Appeared)
	store := s.router.Group(node.APIRoot + "/store/:userUid")

	store.GET("/orders", func(c *gin.Context) {
		views, err := s.store.Orders(c.Request.Context(), c.Param("userUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		out := make([]orderResponse, 0, len(views))
		for _, v := range views {
			out = append(out, responseOf(v))
		}
		c.JSON(http.StatusOK, out)
	})

	store.GET("/orders/:orderUid", func(c *gin.Context) {
		v, err := s.store.Order(c.Request.Context(), c.Param("userUid"), c.Param("orderUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, responseOf(v))
	})

	store.POST("/purchase", func(c *gin.Context) {
		if err := s.store.CheckUser(c.Param("userUid")); err != nil {
			node.Respond(c, err)
			return
		}
		var req purchaseRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		orderUID, err := s.store.Purchase(c.Request.Context(), c.Param("userUid"), req.Model, req.Size)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusCreated, purchaseResponse{OrderUID: orderUID})
	})

	store.POST("/orders/:orderUid/warranty", func(c *gin.Context) {
		if err := s.store.CheckUser(c.Param("userUid")); err != nil {
			node.Respond(c, err)
			return
		}
		var req claimRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		v, err := s.store.Claim(c.Request.Context(), c.Param("userUid"), c.Param("orderUid"), req.Reason)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, verdictResponse{
			Decision:     string(v.Decision),
			WarrantyDate: v.WarrantyDate.Format(node.DateLayout),
		})
	})

	store.DELETE("/orders/:orderUid/refund", func(c *gin.Context) {
		if err := s.store.Refund(c.Request.Context(), c.Param("userUid"), c.Param("orderUid")); err != nil {
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
