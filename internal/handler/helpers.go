package handler

import (
	"errors"
	"net/http"
	"time"

	"cafeledger/internal/repository"
	"cafeledger/internal/service"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// respondError maps service errors onto the response envelope. Unknown errors
// are attached to the gin context so the request logger records them.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		c.JSON(appErr.Code, response.FromAppError(appErr))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}

func badQuery(c *gin.Context, field, msg string) {
	respondError(c, apperror.NewValidationError("", []apperror.FieldError{
		{Field: field, Code: apperror.CodeInvalid, Message: msg},
	}))
}

// parseDate reads a YYYY-MM-DD query parameter as midnight in loc; a missing
// value yields def.
func parseDate(c *gin.Context, key string, def time.Time, loc *time.Location) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		badQuery(c, key, "expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// reportQuery builds a report window from ?from=&to= (inclusive days in the
// report timezone, default today) plus optional tenant_id and branch_id.
func reportQuery(c *gin.Context, accounting service.AccountingService) (service.ReportQuery, bool) {
	loc := accounting.Location()
	from, ok := parseDate(c, "from", time.Now().In(loc), loc)
	if !ok {
		return service.ReportQuery{}, false
	}
	to, ok := parseDate(c, "to", from, loc)
	if !ok {
		return service.ReportQuery{}, false
	}
	if to.Before(from) {
		badQuery(c, "to", "to must not be before from")
		return service.ReportQuery{}, false
	}

	start, _ := accounting.DayRange(from)
	_, end := accounting.DayRange(to)
	return service.ReportQuery{
		TenantID: c.Query("tenant_id"),
		BranchID: c.Query("branch_id"),
		From:     start,
		To:       end,
	}, true
}
