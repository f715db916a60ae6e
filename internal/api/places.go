package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreiashu/tripgeo"
)

// ResolveInput defines the query parameters for /places
type ResolveInput struct {
	Query     string   `form:"q"`
	Latitude  *float64 `form:"lat" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `form:"lon" binding:"omitempty,min=-180,max=180"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=50"`
}

// NearbyInput defines the query parameters for /places/nearby
type NearbyInput struct {
	Query     string   `form:"q"`
	Latitude  *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"lon" binding:"required,min=-180,max=180"`
	Limit     int      `form:"limit" binding:"omitempty,min=1,max=50"`
}

// PlacesOutput wraps a result list.
type PlacesOutput struct {
	Places []tripgeo.Place `json:"places"`
	State  string          `json:"state"`
}

func (s *Server) handleResolve(c *gin.Context) {
	var input ResolveInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var proximity *tripgeo.Coordinates
	if input.Latitude != nil && input.Longitude != nil {
		proximity = tripgeo.NewCoordinates(*input.Latitude, *input.Longitude)
	}

	state := s.resolver.State()
	places, err := s.resolver.Resolve(c.Request.Context(), input.Query, proximity, input.Limit)
	if err != nil {
		s.writeResolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlacesOutput{Places: places, State: state.String()})
}

func (s *Server) handleAutocomplete(c *gin.Context) {
	c.JSON(http.StatusOK, PlacesOutput{
		Places: s.resolver.Autocomplete(c.Query("q")),
		State:  tripgeo.StateFallbackOnly.String(),
	})
}

func (s *Server) handlePopular(c *gin.Context) {
	c.JSON(http.StatusOK, PlacesOutput{
		Places: s.resolver.PopularDestinations(),
		State:  tripgeo.StateFallbackOnly.String(),
	})
}

func (s *Server) handleNearby(c *gin.Context) {
	var input NearbyInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	origin := tripgeo.Coordinates{Latitude: *input.Latitude, Longitude: *input.Longitude}
	state := s.resolver.State()
	places, err := s.resolver.ResolveNearby(c.Request.Context(), input.Query, origin, input.Limit)
	if err != nil {
		s.writeResolveError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlacesOutput{Places: places, State: state.String()})
}

func (s *Server) handleReverse(c *gin.Context) {
	var input NearbyInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	place, ok := s.resolver.ResolveCoordinates(*input.Latitude, *input.Longitude)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no destination near the given point"})
		return
	}
	c.JSON(http.StatusOK, place)
}

func (s *Server) handleQuota(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"quota": s.resolver.QuotaStats(),
		"state": s.resolver.State().String(),
	})
}

func (s *Server) writeResolveError(c *gin.Context, err error) {
	if errors.Is(err, tripgeo.ErrInvalidConfig) {
		s.logger.Error("geocoder misconfigured", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoder misconfigured"})
		return
	}
	s.logger.Error("failed to resolve places", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve places"})
}
