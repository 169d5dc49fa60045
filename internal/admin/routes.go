package admin

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/slipmux/internal/auth"
	"github.com/danmuck/slipmux/internal/link"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type sendRequest struct {
	DatagramHex string `json:"datagram_hex"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"uptime":          time.Since(s.started).String(),
			"service":         s.name,
			"peers":           s.mux.Peers(),
			"ignore_checksum": s.mux.IgnoreChecksum(),
		})
	})

	s.router.GET("/links", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"links": s.mux.Stats()})
	})

	s.router.GET("/links/:peer", func(c *gin.Context) {
		l, ok := s.mux.Link(c.Param("peer"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown peer"})
			return
		}
		c.JSON(http.StatusOK, l.Stats())
	})

	// Injects one datagram toward a next hop, mainly for link bring-up.
	s.router.POST("/links/:peer/send", s.requireToken(), func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		datagram, err := hex.DecodeString(strings.ReplaceAll(req.DatagramHex, " ", ""))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "datagram_hex: " + err.Error()})
			return
		}
		if err := s.mux.Send(datagram, c.Param("peer")); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, link.ErrUnknownPeer) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "sent", "bytes": len(datagram)})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requireToken is a no-op when no admin token is configured.
func (s *Server) requireToken() gin.HandlerFunc {
	if s.token == "" {
		return func(c *gin.Context) { c.Next() }
	}
	v := auth.StaticToken{Token: s.token}
	return func(c *gin.Context) {
		token, _ := auth.BearerToken(c.GetHeader("Authorization"))
		if err := v.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}
