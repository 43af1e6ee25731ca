package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// FeeQuote is the intermediation fee shown on the dashboard.
type FeeQuote struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type estimationView struct {
	ID               uuid.UUID              `json:"id"`
	Vehicle          sales.Vehicle          `json:"vehicle"`
	Status           enums.EstimationStatus `json:"status"`
	SaleStatus       enums.SaleStatus       `json:"saleStatus"`
	AdminEstimation  *sales.AdminEstimation `json:"adminEstimation,omitempty"`
	IsExpired        bool                   `json:"isExpired"`
	DaysRemaining    int                    `json:"daysRemaining"`
	ProcedureStarted bool                   `json:"procedureStarted"`
}

func newEstimationView(rec *sales.Record) estimationView {
	return estimationView{
		ID:               rec.ID,
		Vehicle:          rec.Vehicle,
		Status:           rec.Status,
		SaleStatus:       rec.SaleStatus,
		AdminEstimation:  rec.AdminEstimation,
		IsExpired:        rec.IsExpired,
		DaysRemaining:    rec.DaysRemaining,
		ProcedureStarted: rec.ProcedureStarted(),
	}
}

type acceptResponse struct {
	Outcome    sales.Outcome  `json:"outcome"`
	RedirectTo string         `json:"redirectTo,omitempty"`
	Estimation estimationView `json:"estimation"`
}

type paymentView struct {
	FeesPaid      bool                `json:"feesPaid"`
	FeesAmount    *decimal.Decimal    `json:"feesAmount,omitempty"`
	FeesPaidAt    *time.Time          `json:"feesPaidAt,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod,omitempty"`
}

type dashboardView struct {
	estimationView
	Email         string         `json:"email"`
	SaleInfo      sales.SaleInfo `json:"saleInfo"`
	Photos        sales.Photos   `json:"vehiclePhotos"`
	InteriorCount int            `json:"interiorCount"`
	ExteriorCount int            `json:"exteriorCount"`
	Payment       paymentView    `json:"payment"`
	Fees          FeeQuote       `json:"fees"`
}

func newDashboardView(rec *sales.Record, fees FeeQuote) dashboardView {
	interior, exterior := rec.PhotoCounts()
	return dashboardView{
		estimationView: newEstimationView(rec),
		Email:          rec.Email,
		SaleInfo:       rec.SaleInfo(),
		Photos:         rec.Photos,
		InteriorCount:  interior,
		ExteriorCount:  exterior,
		Payment: paymentView{
			FeesPaid:      rec.Payment.FeesPaid,
			FeesAmount:    rec.Payment.FeesAmount,
			FeesPaidAt:    rec.Payment.FeesPaidAt,
			PaymentMethod: rec.Payment.PaymentMethod,
		},
		Fees: fees,
	}
}
