package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cabledesk/internal/providers/pdf"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/importer"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
)

// looseString accepts a JSON string, number or null. Form clients post the
// fee as text while scripted clients send a number.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = looseString(n.String())
	return nil
}

type subscriberRequest struct {
	SubscriberCode  string      `json:"subscriber_code"`
	Name            string      `json:"name"`
	Phone           looseString `json:"phone"`
	Area            string      `json:"area"`
	Address         string      `json:"address"`
	ServiceProvider string      `json:"service_provider"`
	MonthlyFee      looseString `json:"monthly_fee"`
	ConnectionDate  string      `json:"connection_date"`
	Status          string      `json:"status"`
}

func (r subscriberRequest) form() subscriberdomain.FormInput {
	return subscriberdomain.FormInput{
		SubscriberCode:  r.SubscriberCode,
		Name:            r.Name,
		Phone:           string(r.Phone),
		Area:            r.Area,
		Address:         r.Address,
		ServiceProvider: r.ServiceProvider,
		MonthlyFee:      string(r.MonthlyFee),
		ConnectionDate:  r.ConnectionDate,
		Status:          r.Status,
	}
}

type listSubscribersQuery struct {
	Search   string `form:"search"`
	Area     string `form:"area"`
	FeeRange string `form:"fee_range"`
}

func (s *Server) ListSubscribers(c *gin.Context) {
	_, state, err := s.bindViewState(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.subscriberSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	v := view.Derive(records, state)
	s.telemetry.ObserveStats(v.Stats.Total, v.Stats.Active, v.Stats.TotalRevenue)

	c.JSON(http.StatusOK, gin.H{"data": v})
}

func (s *Server) GetSubscriber(c *gin.Context) {
	resp, err := s.subscriberSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriberSvc.Create(c.Request.Context(), subscriberdomain.CreateSubscriberRequest{
		Form:     req.form(),
		Operator: s.operatorName(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.subscriberSvc.Update(c.Request.Context(), subscriberdomain.UpdateSubscriberRequest{
		ID:       c.Param("id"),
		Form:     req.form(),
		Operator: s.operatorName(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSubscriber(c *gin.Context) {
	confirmed, err := flagEnabled(c.Query("confirm"))
	if err != nil {
		AbortWithError(c, newValidationError("confirm", "invalid_confirm", "confirm must be a boolean"))
		return
	}

	if err := s.subscriberSvc.Delete(c.Request.Context(), subscriberdomain.DeleteSubscriberRequest{
		ID:        c.Param("id"),
		Confirmed: confirmed,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ImportSubscribers(c *gin.Context) {
	dryRun, err := flagEnabled(c.Query("dry_run"))
	if err != nil {
		AbortWithError(c, newValidationError("dry_run", "invalid_dry_run", "dry_run must be a boolean"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "a .xlsx or .csv file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	summary, err := s.subscriberSvc.Import(c.Request.Context(), subscriberdomain.ImportRequest{
		Filename: header.Filename,
		Body:     file,
		Operator: s.operatorName(c),
		DryRun:   dryRun,
	})
	if err != nil {
		var importErr *subscriberdomain.ImportError
		if errors.As(err, &importErr) {
			err = &importFailure{err: err, skipped: summary.Skipped}
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) DownloadImportTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="subscriber_import_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", importer.TemplateCSV())
}

func (s *Server) DownloadRosterReport(c *gin.Context) {
	query, state, err := s.bindViewState(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.subscriberSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := s.clock.Now()
	doc, err := s.reports.GenerateRoster(c.Request.Context(), pdf.RosterData{
		GeneratedAt: now,
		Search:      query.Search,
		Area:        state.Area(),
		FeeRange:    string(state.FeeRange()),
		View:        view.Derive(records, state),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="subscribers-%s.pdf"`, now.Format("20060102")))
	c.Data(http.StatusOK, "application/pdf", body)
}

func (s *Server) bindViewState(c *gin.Context) (listSubscribersQuery, view.State, error) {
	var query listSubscribersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return query, view.State{}, invalidRequestError()
	}

	feeRange, err := view.ParseFeeRange(query.FeeRange)
	if err != nil {
		return query, view.State{}, err
	}

	brackets := s.catalog.Get().FeeBrackets
	state := view.NewState().
		WithSearch(query.Search).
		WithArea(strings.TrimSpace(query.Area)).
		WithFeeRange(feeRange).
		WithBrackets(view.Brackets{MediumFrom: brackets.MediumFrom, HighFrom: brackets.HighFrom})
	return query, state, nil
}
