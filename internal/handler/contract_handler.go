package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/medaminemghirbi/SallaPro/internal/dto"
	"github.com/medaminemghirbi/SallaPro/internal/middleware"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/medaminemghirbi/SallaPro/internal/service"
)

type ContractHandler struct {
	svc service.ContractService
}

func NewContractHandler(svc service.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

func (h *ContractHandler) RegisterRoutes(g *echo.Group) {
	contracts := g.Group("/venue_contracts")
	contracts.GET("", h.List)
	contracts.POST("", h.Create)
	contracts.GET("/stats", h.Stats)
	contracts.GET("/status_options", h.StatusOptions)
	contracts.GET("/event_types", h.EventTypes)
	contracts.GET("/documents", h.SignedDocuments)
	contracts.GET("/:id", h.Get)
	contracts.PUT("/:id", h.Update)
	contracts.POST("/:id/convert_to_devis", h.ConvertToDevis)
	contracts.POST("/:id/convert_to_contract", h.ConvertToContract)
	contracts.POST("/:id/sign", h.Sign)
	contracts.POST("/:id/cancel", h.Cancel)
	contracts.POST("/:id/payments", h.RecordPayment)
}

func (h *ContractHandler) List(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}

	filter := repository.ContractFilter{
		Status: models.ContractStatus(c.QueryParam("status")),
		Search: c.QueryParam("search"),
	}
	if filter.VenueID, err = uintQuery(c, "venue_id"); err != nil {
		return err
	}
	if filter.ClientID, err = uintQuery(c, "client_id"); err != nil {
		return err
	}
	if filter.From, err = timeQuery(c, "from_date"); err != nil {
		return err
	}
	if filter.To, err = timeQuery(c, "to_date"); err != nil {
		return err
	}

	contracts, err := h.svc.List(c.Request().Context(), companyID, filter)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.ContractResponse, len(contracts))
	for i := range contracts {
		resp[i] = dto.ToContractResponse(&contracts[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ContractHandler) Create(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}

	var req dto.ContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var createdBy uint
	if claims := middleware.ClaimsFrom(c); claims != nil {
		createdBy = claims.UserID()
	}

	contract, err := h.svc.CreateDraft(c.Request().Context(), companyID, createdBy, req.ToInput())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToContractResponse(contract))
}

func (h *ContractHandler) Get(c echo.Context) error {
	companyID, id, err := contractIDs(c)
	if err != nil {
		return err
	}

	contract, err := h.svc.Get(c.Request().Context(), companyID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToContractResponse(contract))
}

func (h *ContractHandler) Update(c echo.Context) error {
	companyID, id, err := contractIDs(c)
	if err != nil {
		return err
	}

	var req dto.ContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	contract, err := h.svc.Update(c.Request().Context(), companyID, id, req.ToInput())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToContractResponse(contract))
}

func (h *ContractHandler) ConvertToDevis(c echo.Context) error {
	return h.move(c, h.svc.ConvertToDevis)
}

func (h *ContractHandler) ConvertToContract(c echo.Context) error {
	return h.move(c, h.svc.ConvertToContract)
}

func (h *ContractHandler) Cancel(c echo.Context) error {
	return h.move(c, h.svc.Cancel)
}

type contractMove func(ctx context.Context, companyID, id uint) (*models.VenueContract, error)

func (h *ContractHandler) move(c echo.Context, fn contractMove) error {
	companyID, id, err := contractIDs(c)
	if err != nil {
		return err
	}

	contract, err := fn(c.Request().Context(), companyID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToContractResponse(contract))
}

func (h *ContractHandler) Sign(c echo.Context) error {
	companyID, id, err := contractIDs(c)
	if err != nil {
		return err
	}

	doc, err := signedDocument(c)
	if err != nil {
		return err
	}

	contract, reservation, err := h.svc.Sign(c.Request().Context(), companyID, id, doc)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.SignResponse{
		Contract:    dto.ToContractResponse(contract),
		Reservation: dto.ToReservationResponse(reservation),
	})
}

// signedDocument reads the optional "signed_document" multipart file.
func signedDocument(c echo.Context) (*service.SignedDocument, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}

	fh, err := c.FormFile("signed_document")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart body")
	}
	if fh.Size > service.MaxSignedDocumentSize {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "signed_document exceeds 10MB")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read signed_document")
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, service.MaxSignedDocumentSize+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read signed_document")
	}

	return &service.SignedDocument{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     content,
	}, nil
}

func (h *ContractHandler) RecordPayment(c echo.Context) error {
	companyID, id, err := contractIDs(c)
	if err != nil {
		return err
	}

	var req dto.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	contract, err := h.svc.RecordPayment(c.Request().Context(), companyID, id, req.Amount, req.PaymentMethod)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.ToContractResponse(contract))
}

func (h *ContractHandler) Stats(c echo.Context) error {
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

func (h *ContractHandler) SignedDocuments(c echo.Context) error {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return err
	}

	docs, err := h.svc.SignedDocuments(c.Request().Context(), companyID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *ContractHandler) StatusOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, models.ContractStatusLabels)
}

func (h *ContractHandler) EventTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, models.EventTypes)
}

func contractIDs(c echo.Context) (uint, uint, error) {
	companyID, err := uintParam(c, "company_id")
	if err != nil {
		return 0, 0, err
	}
	id, err := uintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	return companyID, id, nil
}
