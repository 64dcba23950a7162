package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medaminemghirbi/SallaPro/internal/dto"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/medaminemghirbi/SallaPro/internal/service"
)

type ReservationHandler struct {
	svc service.ReservationService
	now func() time.Time
}

func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc, now: time.Now}
}

func (h *ReservationHandler) RegisterRoutes(g *echo.Group) {
	reservations := g.Group("/venue_reservations")
	reservations.GET("", h.List)
	reservations.GET("/stats", h.Stats)
	reservations.GET("/calendar", h.Calendar)
	reservations.GET("/check_availability", h.CheckAvailability)
	reservations.GET("/:id", h.Get)
	reservations.DELETE("/:id", h.Delete)
	reservations.POST("/:id/start", h.Start)
	reservations.POST("/:id/cancel", h.Cancel)
	reservations.POST("/:id/complete", h.Complete)
}

func (h *ReservationHandler) List(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}

	filter := repository.ReservationFilter{
		Status: models.ReservationStatus(c.QueryParam("status")),
		Period: c.QueryParam("period"),
	}
	if filter.VenueID, err = uintQuery(c, "venue_id"); err != nil {
		return err
	}
	if filter.ClientID, err = uintQuery(c, "client_id"); err != nil {
		return err
	}

	reservations, err := h.svc.List(c.Request().Context(), companyID, filter)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ReservationHandler) Get(c echo.Context) error {
	companyID, id, err := reservationIDs(c)
	if err != nil {
		return err
	}

	reservation, err := h.svc.Get(c.Request().Context(), companyID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) Delete(c echo.Context) error {
	companyID, id, err := reservationIDs(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), companyID, id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) Start(c echo.Context) error {
	return h.move(c, h.svc.Start)
}

func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.move(c, h.svc.Cancel)
}

func (h *ReservationHandler) Complete(c echo.Context) error {
	return h.move(c, h.svc.Complete)
}

func (h *ReservationHandler) move(c echo.Context, fn func(context.Context, uint, uint) (*models.VenueReservation, error)) error {
	companyID, id, err := reservationIDs(c)
	if err != nil {
		return err
	}

	reservation, err := fn(c.Request().Context(), companyID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}
	venueID, err := uintQuery(c, "venue_id")
	if err != nil {
		return err
	}
	start, err := timeQuery(c, "start_date")
	if err != nil {
		return err
	}
	end, err := timeQuery(c, "end_date")
	if err != nil {
		return err
	}
	if venueID == 0 || start == nil || end == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "venue_id, start_date and end_date are required")
	}

	availability, err := h.svc.CheckAvailability(c.Request().Context(), companyID, venueID, models.NewPeriod(*start, *end))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToAvailabilityResponse(availability))
}

// Calendar defaults to the current month when no window is given.
func (h *ReservationHandler) Calendar(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}
	start, err := timeQuery(c, "start")
	if err != nil {
		return err
	}
	end, err := timeQuery(c, "end")
	if err != nil {
		return err
	}

	now := h.now().UTC()
	if start == nil {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start = &first
	}
	if end == nil {
		last := start.AddDate(0, 1, 0)
		end = &last
	}

	reservations, err := h.svc.Calendar(c.Request().Context(), companyID, models.NewPeriod(*start, *end))
	if err != nil {
		return toHTTPError(err)
	}

	events := make([]dto.CalendarEvent, len(reservations))
	for i := range reservations {
		events[i] = dto.ToCalendarEvent(&reservations[i])
	}
	return c.JSON(http.StatusOK, events)
}

func (h *ReservationHandler) Stats(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}

	stats, err := h.svc.Stats(c.Request().Context(), companyID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func reservationIDs(c echo.Context) (uint, uint, error) {
	return contractIDs(c)
}
