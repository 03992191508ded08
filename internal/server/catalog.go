package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
)

type feeBracketResponse struct {
	Value string   `json:"value"`
	From  *float64 `json:"from,omitempty"`
	Below *float64 `json:"below,omitempty"`
}

type catalogResponse struct {
	ServiceProviders []string                  `json:"service_providers"`
	Statuses         []subscriberdomain.Status `json:"statuses"`
	FeeRanges        []feeBracketResponse      `json:"fee_ranges"`
}

func (s *Server) GetCatalog(c *gin.Context) {
	catalog := s.catalog.Get()
	medium := catalog.FeeBrackets.MediumFrom
	high := catalog.FeeBrackets.HighFrom

	c.JSON(http.StatusOK, gin.H{"data": catalogResponse{
		ServiceProviders: catalog.ServiceProviders,
		Statuses:         subscriberdomain.Statuses,
		FeeRanges: []feeBracketResponse{
			{Value: string(view.FeeAll)},
			{Value: string(view.FeeLow), Below: &medium},
			{Value: string(view.FeeMedium), From: &medium, Below: &high},
			{Value: string(view.FeeHigh), From: &high},
		},
	}})
}
