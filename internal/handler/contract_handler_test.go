package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/medaminemghirbi/SallaPro/internal/auth"
	"github.com/medaminemghirbi/SallaPro/internal/dto"
	"github.com/medaminemghirbi/SallaPro/internal/middleware"
	"github.com/medaminemghirbi/SallaPro/internal/models"
	"github.com/medaminemghirbi/SallaPro/internal/repository"
	"github.com/medaminemghirbi/SallaPro/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock ContractService ---

type mockContractService struct {
	createFn  func(ctx context.Context, companyID, createdByID uint, in service.ContractInput) (*models.VenueContract, error)
	getFn     func(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	listFn    func(ctx context.Context, companyID uint, filter repository.ContractFilter) ([]models.VenueContract, error)
	updateFn  func(ctx context.Context, companyID, id uint, in service.ContractInput) (*models.VenueContract, error)
	moveFn    func(ctx context.Context, companyID, id uint) (*models.VenueContract, error)
	signFn    func(ctx context.Context, companyID, id uint, doc *service.SignedDocument) (*models.VenueContract, *models.VenueReservation, error)
	paymentFn func(ctx context.Context, companyID, id uint, amount decimal.Decimal, method string) (*models.VenueContract, error)
	statsFn   func(ctx context.Context, companyID uint) (*models.ContractStats, error)
	docsFn    func(ctx context.Context, companyID uint) ([]models.CompanyDocument, error)
}

func (m *mockContractService) CreateDraft(ctx context.Context, companyID, createdByID uint, in service.ContractInput) (*models.VenueContract, error) {
	return m.createFn(ctx, companyID, createdByID, in)
}
func (m *mockContractService) Get(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return m.getFn(ctx, companyID, id)
}
func (m *mockContractService) List(ctx context.Context, companyID uint, filter repository.ContractFilter) ([]models.VenueContract, error) {
	return m.listFn(ctx, companyID, filter)
}
func (m *mockContractService) Update(ctx context.Context, companyID, id uint, in service.ContractInput) (*models.VenueContract, error) {
	return m.updateFn(ctx, companyID, id, in)
}
func (m *mockContractService) ConvertToDevis(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return m.moveFn(ctx, companyID, id)
}
func (m *mockContractService) ConvertToContract(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return m.moveFn(ctx, companyID, id)
}
func (m *mockContractService) Sign(ctx context.Context, companyID, id uint, doc *service.SignedDocument) (*models.VenueContract, *models.VenueReservation, error) {
	return m.signFn(ctx, companyID, id, doc)
}
func (m *mockContractService) Cancel(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
	return m.moveFn(ctx, companyID, id)
}
func (m *mockContractService) RecordPayment(ctx context.Context, companyID, id uint, amount decimal.Decimal, method string) (*models.VenueContract, error) {
	return m.paymentFn(ctx, companyID, id, amount, method)
}
func (m *mockContractService) Stats(ctx context.Context, companyID uint) (*models.ContractStats, error) {
	return m.statsFn(ctx, companyID)
}
func (m *mockContractService) SignedDocuments(ctx context.Context, companyID uint) ([]models.CompanyDocument, error) {
	return m.docsFn(ctx, companyID)
}

// --- Helpers ---

func newContext(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func sampleContract() *models.VenueContract {
	rate := decimal.NewFromInt(20)
	c := &models.VenueContract{
		ID:              4,
		CompanyID:       1,
		VenueID:         2,
		ClientID:        3,
		ContractNumber:  "CTR-202506-0004",
		Title:           "Mariage",
		Status:          models.ContractDraft,
		EventStartDate:  time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		EventEndDate:    time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC),
		BasePrice:       decimal.NewFromInt(1000),
		DiscountPercent: decimal.NewFromInt(10),
		TaxRate:         &rate,
		AmountPaid:      decimal.NewFromInt(80),
		PaymentStatus:   models.PaymentPartial,
		Venue:           &models.Venue{ID: 2, Name: "Salle des Roses"},
		Client:          &models.User{ID: 3, Firstname: "Amira", Lastname: "Ben Salah"},
	}
	c.ApplyPricing()
	return c
}

func httpErr(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he
}

// --- Tests ---

func TestCreateContract_Handler_Success(t *testing.T) {
	var gotIn service.ContractInput
	var gotCreatedBy uint
	svc := &mockContractService{
		createFn: func(ctx context.Context, companyID, createdByID uint, in service.ContractInput) (*models.VenueContract, error) {
			gotIn, gotCreatedBy = in, createdByID
			return sampleContract(), nil
		},
	}

	body := `{"venue_id":2,"client_id":3,"title":"Mariage","event_start_date":"2025-07-01T10:00:00Z","event_end_date":"2025-07-01T18:00:00Z","base_price":"1000","discount_percent":10}`
	c, rec := newContext(http.MethodPost, "/api/v1/companies/1/venue_contracts", body, "company_id", "1")
	middleware.SetClaims(c, &auth.Claims{CompanyID: 1, RegisteredClaims: jwt.RegisteredClaims{Subject: "9"}})

	err := NewContractHandler(svc).Create(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(9), gotCreatedBy)
	require.NotNil(t, gotIn.BasePrice)
	assert.Equal(t, "1000", gotIn.BasePrice.String())
	assert.Equal(t, "10", gotIn.DiscountPercent.String())
	assert.True(t, gotIn.EventStartDate.Equal(time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, gotIn.TaxRate)

	var resp dto.ContractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CTR-202506-0004", resp.ContractNumber)
	assert.Equal(t, "1080", resp.TotalAmount.String())
	assert.Equal(t, "1000", resp.RemainingAmount.String())
	assert.Equal(t, "Salle des Roses", resp.VenueName)
	assert.Equal(t, "Amira Ben Salah", resp.ClientName)
}

func TestCreateContract_Handler_ValidationError(t *testing.T) {
	svc := &mockContractService{
		createFn: func(ctx context.Context, companyID, createdByID uint, in service.ContractInput) (*models.VenueContract, error) {
			return nil, &service.ValidationError{Field: "event_end_date", Message: "must be after event_start_date"}
		},
	}
	c, _ := newContext(http.MethodPost, "/", `{"title":"x"}`, "company_id", "1")

	err := NewContractHandler(svc).Create(c)

	he := httpErr(t, err)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "event_end_date must be after event_start_date", he.Message)
}

func TestCreateContract_Handler_InvalidBody(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/", `{"base_price":`, "company_id", "1")

	err := NewContractHandler(&mockContractService{}).Create(c)

	assert.Equal(t, http.StatusBadRequest, httpErr(t, err).Code)
}

func TestGetContract_Handler_NotFound(t *testing.T) {
	svc := &mockContractService{
		getFn: func(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
			return nil, &service.NotFoundError{Entity: "contract", ID: id}
		},
	}
	c, _ := newContext(http.MethodGet, "/", "", "company_id", "1", "id", "42")

	err := NewContractHandler(svc).Get(c)

	he := httpErr(t, err)
	assert.Equal(t, http.StatusNotFound, he.Code)
	assert.Equal(t, "contract 42 not found", he.Message)
}

func TestGetContract_Handler_InvalidID(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/", "", "company_id", "1", "id", "abc")

	err := NewContractHandler(&mockContractService{}).Get(c)

	assert.Equal(t, http.StatusBadRequest, httpErr(t, err).Code)
}

func TestListContracts_Handler_Filters(t *testing.T) {
	var got repository.ContractFilter
	svc := &mockContractService{
		listFn: func(ctx context.Context, companyID uint, filter repository.ContractFilter) ([]models.VenueContract, error) {
			got = filter
			return []models.VenueContract{*sampleContract()}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/?status=devis&venue_id=2&search=CTR&from_date=2025-07-01", "", "company_id", "1")

	err := NewContractHandler(svc).List(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ContractDevis, got.Status)
	assert.Equal(t, uint(2), got.VenueID)
	assert.Equal(t, "CTR", got.Search)
	require.NotNil(t, got.From)
	assert.True(t, got.From.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.To)

	var resp []dto.ContractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestListContracts_Handler_BadDate(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/?from_date=yesterday", "", "company_id", "1")

	err := NewContractHandler(&mockContractService{}).List(c)

	assert.Equal(t, http.StatusBadRequest, httpErr(t, err).Code)
}

func TestConvertToContract_Handler_InvalidTransition(t *testing.T) {
	svc := &mockContractService{
		moveFn: func(ctx context.Context, companyID, id uint) (*models.VenueContract, error) {
			return nil, &service.TransitionError{Entity: "contract", From: "draft", To: "contract"}
		},
	}
	c, _ := newContext(http.MethodPost, "/", "", "company_id", "1", "id", "4")

	err := NewContractHandler(svc).ConvertToContract(c)

	assert.Equal(t, http.StatusUnprocessableEntity, httpErr(t, err).Code)
}

func TestSignContract_Handler_Overlap(t *testing.T) {
	conflict := models.VenueReservation{
		ID:                7,
		ReservationNumber: "RES-202506-0001",
		StartDate:         time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC),
		Client:            &models.User{Firstname: "Sami", Lastname: "Haddad"},
	}
	svc := &mockContractService{
		signFn: func(ctx context.Context, companyID, id uint, doc *service.SignedDocument) (*models.VenueContract, *models.VenueReservation, error) {
			return nil, nil, &service.OverlapError{VenueID: 2, Conflicts: []models.VenueReservation{conflict}}
		},
	}
	c, rec := newContext(http.MethodPost, "/", "", "company_id", "1", "id", "4")

	err := NewContractHandler(svc).Sign(c)

	he := httpErr(t, err)
	assert.Equal(t, http.StatusConflict, he.Code)

	middleware.ErrorHandler(err, c)
	var body dto.OverlapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Conflicts, 1)
	assert.Equal(t, "RES-202506-0001", body.Conflicts[0].ReservationNumber)
	assert.Equal(t, "Sami Haddad", body.Conflicts[0].ClientName)
	assert.NotEmpty(t, body.Message)
}

func TestSignContract_Handler_WithDocument(t *testing.T) {
	var got *service.SignedDocument
	svc := &mockContractService{
		signFn: func(ctx context.Context, companyID, id uint, doc *service.SignedDocument) (*models.VenueContract, *models.VenueReservation, error) {
			got = doc
			signed := sampleContract()
			signed.Status = models.ContractSigned
			return signed, &models.VenueReservation{ID: 1, ReservationNumber: "RES-202506-0001", Status: models.ReservationConfirmed}, nil
		},
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="signed_document"; filename="signed.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("company_id", "id")
	c.SetParamValues("1", "4")

	err = NewContractHandler(svc).Sign(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "signed.pdf", got.FileName)
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 test"), got.Content)

	var resp dto.SignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ContractSigned, resp.Contract.Status)
	assert.Equal(t, "RES-202506-0001", resp.Reservation.ReservationNumber)
}

func TestSignContract_Handler_WithoutDocument(t *testing.T) {
	called := false
	svc := &mockContractService{
		signFn: func(ctx context.Context, companyID, id uint, doc *service.SignedDocument) (*models.VenueContract, *models.VenueReservation, error) {
			called = true
			assert.Nil(t, doc)
			return sampleContract(), &models.VenueReservation{ID: 1}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/", "", "company_id", "1", "id", "4")

	err := NewContractHandler(svc).Sign(c)

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordPayment_Handler(t *testing.T) {
	var gotAmount decimal.Decimal
	var gotMethod string
	svc := &mockContractService{
		paymentFn: func(ctx context.Context, companyID, id uint, amount decimal.Decimal, method string) (*models.VenueContract, error) {
			gotAmount, gotMethod = amount, method
			return sampleContract(), nil
		},
	}
	c, rec := newContext(http.MethodPost, "/", `{"amount":"250.50","payment_method":"cash"}`, "company_id", "1", "id", "4")

	err := NewContractHandler(svc).RecordPayment(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "250.5", gotAmount.String())
	assert.Equal(t, "cash", gotMethod)
}

func TestContractHandler_ConcurrencyConflict(t *testing.T) {
	svc := &mockContractService{
		createFn: func(ctx context.Context, companyID, createdByID uint, in service.ContractInput) (*models.VenueContract, error) {
			return nil, service.ErrConcurrencyConflict
		},
	}
	c, _ := newContext(http.MethodPost, "/", `{}`, "company_id", "1")

	err := NewContractHandler(svc).Create(c)

	assert.Equal(t, http.StatusConflict, httpErr(t, err).Code)
}

func TestContractOptions_Handler(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/", "", "company_id", "1")
	require.NoError(t, NewContractHandler(&mockContractService{}).StatusOptions(c))

	var opts []models.Option
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	require.Len(t, opts, 5)
	assert.Equal(t, "draft", opts[0].Value)

	c, rec = newContext(http.MethodGet, "/", "", "company_id", "1")
	require.NoError(t, NewContractHandler(&mockContractService{}).EventTypes(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Len(t, opts, 10)
}

func TestSignedDocuments_Handler(t *testing.T) {
	svc := &mockContractService{
		docsFn: func(ctx context.Context, companyID uint) ([]models.CompanyDocument, error) {
			assert.Equal(t, uint(1), companyID)
			return []models.CompanyDocument{{ID: 3, Name: "Contrat - Mariage - CTR-202506-0004", Content: []byte("%PDF")}}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/", "", "company_id", "1")

	err := NewContractHandler(svc).SignedDocuments(c)

	assert.NoError(t, err)
	assert.Contains(t, rec.Body.String(), "CTR-202506-0004")
	assert.NotContains(t, rec.Body.String(), "content")
}
