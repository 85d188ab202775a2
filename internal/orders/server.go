package orders

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

	orders *Orchestrator
	router *gin.Engine
}

var _ node.Node = (*Server)(nil)

func Appear(id, addr string, corsOrigins []string, orders *Orchestrator) *Server {
	return &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		orders:   orders,
		router:   node.Appear(id, corsOrigins),
	}
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "orders"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

type placeRequest struct {
	Model string `json:"model" binding:"required"`
	Size  string `json:"size" binding:"required"`
}

type placeResponse struct {
	OrderUID string `json:"orderUid"`
}

type claimRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type verdictResponse struct {
	Decision     string `json:"decision"`
	WarrantyDate string `json:"warrantyDate"`
}

type orderView struct {
	OrderUID  string `json:"orderUid"`
	OrderDate string `json:"orderDate"`
	ItemUID   string `json:"itemUid"`
	Status    Status `json:"status"`
}

func viewOf(o Order) orderView {
	return orderView{
		OrderUID:  o.UID,
		OrderDate: o.Date.Format(node.DateLayout),
		ItemUID:   o.ItemUID,
		Status:    o.Status,
	}
}

// RegisterRoutes mounts the order API. The POST routes share one wildcard name: it is
// the user uid on placement and the order uid on claims.
func (s *Server) RegisterRoutes() {
	node.RegisterManagement(s.router, s.ID, s.Appeared)
	api := s.router.Group(node.APIRoot)

	api.POST("/orders/:uid", func(c *gin.Context) {
		var req placeRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		orderUID, err := s.orders.PlaceOrder(c.Request.Context(), c.Param("uid"), req.Model, req.Size)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, placeResponse{OrderUID: orderUID})
	})

	api.GET("/orders/:userUid", func(c *gin.Context) {
		list, err := s.orders.ListOrders(c.Request.Context(), c.Param("userUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		out := make([]orderView, 0, len(list))
		for _, o := range list {
			out = append(out, viewOf(o))
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/orders/:userUid/:orderUid", func(c *gin.Context) {
		o, err := s.orders.GetOrder(c.Request.Context(), c.Param("userUid"), c.Param("orderUid"))
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(o))
	})

	api.POST("/orders/:uid/warranty", func(c *gin.Context) {
		var req claimRequest
		if err := node.Bind(c, &req); err != nil {
			node.Respond(c, err)
			return
		}
		v, err := s.orders.ClaimWarranty(c.Request.Context(), c.Param("uid"), req.Reason)
		if err != nil {
			node.Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, verdictResponse{
			Decision:     string(v.Decision),
			WarrantyDate: v.WarrantyDate.Format(node.DateLayout),
		})
	})

	api.DELETE("/orders/:orderUid", func(c *gin.Context) {
		if err := s.orders.ReturnOrder(c.Request.Context(), c.Param("orderUid")); err != nil {
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
