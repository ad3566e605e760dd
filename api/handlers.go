package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crptomonkeys/greenwiz/drops"
)

func (s *Server) listEndpoints(c *gin.Context) {
	if s.deps.Registry == nil {
		unavailable(c, "endpoint registry")
		return
	}
	c.JSON(http.StatusOK, s.deps.Registry.Snapshot())
}

func (s *Server) listInventory(c *gin.Context) {
	if s.deps.Inventory == nil {
		unavailable(c, "inventory")
		return
	}
	c.JSON(http.StatusOK, s.deps.Inventory.Sizes())
}

func (s *Server) usage(c *gin.Context) {
	if s.deps.Usage == nil {
		unavailable(c, "usage ledger")
		return
	}
	day := c.DefaultQuery("day", drops.DayKey(time.Now()))
	if _, err := time.Parse("2006-01-02", day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return
	}
	counts, err := s.deps.Usage.Day(c.Request.Context(), day)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day, "senders": counts})
}

type dropRequest struct {
	Sender        string `json:"sender" binding:"required"`
	Scope         string `json:"scope"`
	RecipientID   string `json:"recipient_id" binding:"required"`
	RecipientName string `json:"recipient_name"`
	Reason        string `json:"reason"`
	Quantity      int    `json:"quantity"`
}

func (s *Server) createDrop(c *gin.Context) {
	if s.deps.Distributor == nil {
		unavailable(c, "distributor")
		return
	}
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	result, err := s.deps.Distributor.Distribute(c.Request.Context(), drops.Request{
		Sender:    req.Sender,
		Scope:     req.Scope,
		Recipient: drops.Recipient{ID: req.RecipientID, Name: req.RecipientName},
		Reason:    req.Reason,
		Quantity:  req.Quantity,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type claimLinkRequest struct {
	Collection string   `json:"collection" binding:"required"`
	AssetIDs   []uint64 `json:"asset_ids" binding:"required"`
	Memo       string   `json:"memo"`
	Wait       bool     `json:"wait"`
}

func (s *Server) createClaimLink(c *gin.Context) {
	if s.deps.Links == nil {
		unavailable(c, "claim links")
		return
	}
	var req claimLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Memo == "" {
		req.Memo = drops.DefaultLinkMemo
	}
	link, err := s.deps.Links.Create(c.Request.Context(), req.Collection, req.AssetIDs, req.Memo, req.Wait)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"link_id":    link.LinkID,
		"claim_url":  link.AtomicHubURL(),
		"nefty_url":  link.NeftyURL(),
		"public_url": link.PublicURL(),
	})
}

func (s *Server) cancelClaimLink(c *gin.Context) {
	if s.deps.Links == nil {
		unavailable(c, "claim links")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "link id must be a number"})
		return
	}
	collection := c.Query("collection")
	if collection == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "collection is required"})
		return
	}
	result, err := s.deps.Links.CancelMany(c.Request.Context(), collection, []uint64{id}, drops.DefaultCancelBatch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) staleClaimLinks(c *gin.Context) {
	if s.deps.Links == nil {
		unavailable(c, "claim links")
		return
	}
	collection := c.Query("collection")
	if collection == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "collection is required"})
		return
	}
	olderThan := drops.DefaultStaleAge
	if v := c.Query("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "older_than must be a positive duration"})
			return
		}
		olderThan = d
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(drops.DefaultCancelBatch)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}
	links, err := s.deps.Links.FindStaleLinks(c.Request.Context(), collection, olderThan, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if links == nil {
		links = []drops.StaleLink{}
	}
	c.JSON(http.StatusOK, links)
}

func (s *Server) runRaffle(c *gin.Context) {
	if s.deps.Raffle == nil {
		unavailable(c, "raffle")
		return
	}
	out, err := s.deps.Raffle.RunOnce(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
