package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
	"github.com/montage-crm/planner/backend/internal/repository"
	"github.com/montage-crm/planner/backend/internal/utils"
)

var errConflictsFound = errors.New("booking conflicts with existing bookings")

type bookingRequest struct {
	InstallerID int64  `json:"installerID" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Force       bool   `json:"force"`
	Reason      string `json:"reason" validate:"required_if=Force true,max=500"`
}

// candidateRequest describes a booking that is only checked, never written.
type candidateRequest struct {
	ID          int64  `json:"id" validate:"gte=0"`
	InstallerID int64  `json:"installerID" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	Title       string `json:"title"`
}

type bookingResult struct {
	Booking  *domain.Booking         `json:"booking"`
	Override *domain.BookingOverride `json:"override"`
}

// reviewCandidate runs the conflict check for a write. Without force a
// conflicting candidate yields errConflictsFound together with the report.
// With force the returned override is the audit record to persist.
func (h *Handler) reviewCandidate(candidate domain.Booking, existing []domain.Booking, force bool, reason string, adminID int64) (*domain.ConflictReport, *domain.BookingOverride, error) {
	report, err := conflict.Check(candidate, existing, h.policy)
	if err != nil {
		return nil, nil, err
	}

	if !report.HasConflicts() {
		return report, nil, nil
	}
	if !force {
		return report, nil, errConflictsFound
	}

	override := &domain.BookingOverride{
		BookingID: candidate.ID,
		AdminID:   adminID,
		Reason:    reason,
		Conflicts: report.Conflicts,
	}
	return report, override, nil
}

// loadInstaller fetches the assignee and reports a user-facing message when
// the booking cannot be given to them.
func (h *Handler) loadInstaller(id int64) (*domain.User, string, error) {
	installer, err := h.repository.GetUserByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "installer not found", nil
		}
		return nil, "", err
	}
	if err := utils.ValidateAssignee(installer); err != nil {
		return nil, err.Error(), nil
	}
	return installer, "", nil
}

func bookingConstraintError(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.ConstraintName {
	case "bookings_installer_id_fkey":
		return "installer not found", true
	case "bookings_time_check":
		return "end time must be after start time", true
	default:
		return "", false
	}
}

func (h *Handler) notifyInstaller(r *http.Request, installer *domain.User, b *domain.Booking, override *domain.BookingOverride) {
	mail := domain.MailMessage{
		Type: domain.MailTypeBookingAssigned,
		To:   installer.Email,
		Data: domain.BookingAssignedMailData{
			FullName:  installer.FullName,
			Title:     b.Title,
			Date:      b.Date,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		},
	}
	if override != nil {
		mail.Type = domain.MailTypeBookingOverride
		mail.Data = domain.BookingOverrideMailData{
			FullName:      installer.FullName,
			Title:         b.Title,
			Date:          b.Date,
			StartTime:     b.StartTime,
			EndTime:       b.EndTime,
			ConflictCount: len(override.Conflicts),
			Reason:        override.Reason,
		}
	}

	// the booking is already stored, a lost notification must not fail the request
	if err := h.publishMail(mail); err != nil {
		slog.Error("failed to queue booking mail", "bookingID", b.ID, "installerID", installer.ID, "requestID", requestID(r), "error", err)
	}
}

func logOverride(r *http.Request, b *domain.Booking, override *domain.BookingOverride, report *domain.ConflictReport) {
	conflicting := make([]int64, len(override.Conflicts))
	for i, c := range override.Conflicts {
		conflicting[i] = c.ExistingBooking.ID
	}
	slog.Warn("booking accepted despite conflicts",
		"bookingID", b.ID,
		"adminID", override.AdminID,
		"installerID", b.InstallerID,
		"date", b.Date,
		"conflictingBookings", conflicting,
		"highestSeverity", *report.HighestSeverity,
		"reason", override.Reason,
		"requestID", requestID(r),
	)
}

func (h *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	filter := repository.BookingFilter{}

	if param := r.URL.Query().Get("installerID"); param != "" {
		installerID, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "invalid installer id")
			return
		}
		filter.InstallerID = &installerID
	}
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			h.errorResponse(w, r, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	// installers only ever see their own schedule
	if currentRole(r) == domain.RoleInstaller {
		sub, err := subject(r)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		filter.InstallerID = &sub
	}

	bookings, err := h.repository.GetBookings(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched bookings", bookings)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b := r.Context().Value(BookingCtx).(*domain.Booking)
	h.successResponse(w, r, "fetched booking", b)
}

func (h *Handler) CheckBooking(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	candidate := domain.Booking{
		ID:          req.ID,
		InstallerID: req.InstallerID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
	}
	if err := utils.ValidateBookingTime(&candidate); err != nil {
		h.badRequest(w, r, err)
		return
	}

	existing, err := h.repository.GetBookingsByInstallerAndDate(candidate.InstallerID, candidate.Date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	report, err := conflict.Check(candidate, existing, h.policy)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	msg := "no conflicts"
	if report.HasConflicts() {
		msg = fmt.Sprintf("%d conflict(s) found", len(report.Conflicts))
	}
	h.successResponse(w, r, msg, report)
}

func (h *Handler) SuggestBookingSlots(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	candidate := domain.Booking{
		ID:          req.ID,
		InstallerID: req.InstallerID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if err := utils.ValidateBookingTime(&candidate); err != nil {
		h.badRequest(w, r, err)
		return
	}

	existing, err := h.repository.GetBookingsByInstallerAndDate(candidate.InstallerID, candidate.Date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	slots, err := conflict.SuggestSlots(candidate, existing, h.config.WorkingDay(), h.config.Conflict.SlotStep)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, fmt.Sprintf("%d free slot(s)", len(slots)), slots)
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req bookingRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	b := &domain.Booking{
		InstallerID: req.InstallerID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   myInfo.ID,
	}
	if err := utils.ValidateBookingTime(b); err != nil {
		h.badRequest(w, r, err)
		return
	}

	installer, msg, err := h.loadInstaller(b.InstallerID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if installer == nil {
		h.errorResponse(w, r, msg)
		return
	}

	existing, err := h.repository.GetBookingsByInstallerAndDate(b.InstallerID, b.Date)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	report, override, err := h.reviewCandidate(*b, existing, req.Force, req.Reason, myInfo.ID)
	if err != nil {
		switch {
		case errors.Is(err, errConflictsFound):
			h.conflictResponse(w, r, report)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.CreateBooking(b, override); err != nil {
		if msg, ok := bookingConstraintError(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if override != nil {
		logOverride(r, b, override, report)
	}
	h.notifyInstaller(r, installer, b, override)

	h.successResponse(w, r, "booking created", bookingResult{Booking: b, Override: override})
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	b := r.Context().Value(BookingCtx).(*domain.Booking)

	var req struct {
		InstallerID *int64  `json:"installerID" validate:"omitempty,gt=0"`
		Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
		StartTime   *string `json:"startTime"`
		EndTime     *string `json:"endTime"`
		Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		Force       bool    `json:"force"`
		Reason      string  `json:"reason" validate:"required_if=Force true,max=500"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	before := *b

	if req.InstallerID != nil {
		b.InstallerID = *req.InstallerID
	}
	if req.Date != nil {
		b.Date = *req.Date
	}
	if req.StartTime != nil {
		b.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		b.EndTime = *req.EndTime
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = *req.Description
	}

	if err := utils.ValidateBookingTime(b); err != nil {
		h.badRequest(w, r, err)
		return
	}

	installer, msg, err := h.loadInstaller(b.InstallerID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if installer == nil {
		h.errorResponse(w, r, msg)
		return
	}

	rescheduled := before.InstallerID != b.InstallerID || before.Date != b.Date ||
		before.StartTime != b.StartTime || before.EndTime != b.EndTime

	var (
		report   *domain.ConflictReport
		override *domain.BookingOverride
	)
	// text-only edits keep whatever overlap was accepted before
	if rescheduled {
		existing, err := h.repository.GetBookingsByInstallerAndDate(b.InstallerID, b.Date)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		report, override, err = h.reviewCandidate(*b, existing, req.Force, req.Reason, myInfo.ID)
		if err != nil {
			switch {
			case errors.Is(err, errConflictsFound):
				h.conflictResponse(w, r, report)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
	}

	if err := h.repository.UpdateBooking(b, override); err != nil {
		if msg, ok := bookingConstraintError(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "booking was changed by someone else, please reload and try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if override != nil {
		logOverride(r, b, override, report)
	}
	if rescheduled {
		h.notifyInstaller(r, installer, b, override)
	}

	h.successResponse(w, r, "booking updated", bookingResult{Booking: b, Override: override})
}

func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	b := r.Context().Value(BookingCtx).(*domain.Booking)

	if err := h.repository.DeleteBooking(b.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "booking deleted", nil)
}

func (h *Handler) GetBookingOverrides(w http.ResponseWriter, r *http.Request) {
	b := r.Context().Value(BookingCtx).(*domain.Booking)

	overrides, err := h.repository.GetOverridesByBookingID(b.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "fetched override history", overrides)
}
