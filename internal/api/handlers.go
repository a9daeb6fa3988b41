package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RomeoJackson199/dentibot-scheduling/internal/booking"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/completion"
	"github.com/RomeoJackson199/dentibot-scheduling/internal/schedule"
)

func slotsHandler(gen *schedule.Generator, defaultDuration int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		duration := defaultDuration
		if v := r.URL.Query().Get("duration"); v != "" {
			duration, err = strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be an integer number of minutes")
				return
			}
		}

		urgent := r.URL.Query().Get("urgent") == "true"

		slots, err := gen.GenerateSlots(r.Context(), providerID, date, duration, urgent)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidDuration) {
				writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{
				Start:           s.Start,
				DurationMinutes: s.DurationMinutes,
				Available:       s.Available,
				Reason:          string(s.Reason),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func setAvailabilityHandler(cal *schedule.Calendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		windows := make([]schedule.WorkingWindow, 0, len(req.Windows))
		for _, p := range req.Windows {
			win, err := windowFromPayload(providerID, p)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
				return
			}
			windows = append(windows, win)
		}

		if err := cal.SetWeeklyAvailability(r.Context(), providerID, windows); err != nil {
			if errors.Is(err, schedule.ErrInvalidWindow) {
				writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func windowFromPayload(providerID uuid.UUID, p WorkingWindowPayload) (schedule.WorkingWindow, error) {
	w := schedule.WorkingWindow{
		ProviderID: providerID,
		Weekday:    time.Weekday(p.Weekday),
	}

	var err error
	if w.StartMin, err = schedule.ParseClock(p.Start); err != nil {
		return w, err
	}
	if w.EndMin, err = schedule.ParseClock(p.End); err != nil {
		return w, err
	}
	if w.BreakStartMin, err = parseOptionalClock(p.BreakStart); err != nil {
		return w, err
	}
	if w.BreakEndMin, err = parseOptionalClock(p.BreakEnd); err != nil {
		return w, err
	}
	if w.EmergencyStartMin, err = parseOptionalClock(p.EmergencyStart); err != nil {
		return w, err
	}
	if w.EmergencyEndMin, err = parseOptionalClock(p.EmergencyEnd); err != nil {
		return w, err
	}
	return w, nil
}

func parseOptionalClock(s *string) (*int, error) {
	if s == nil {
		return nil, nil
	}
	min, err := schedule.ParseClock(*s)
	if err != nil {
		return nil, err
	}
	return &min, nil
}

func createExceptionHandler(cal *schedule.Calendar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		var req CreateExceptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		startDate, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date", "start_date must be YYYY-MM-DD")
			return
		}
		endDate, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_date", "end_date must be YYYY-MM-DD")
			return
		}

		ex, err := cal.AddException(r.Context(), schedule.Exception{
			ProviderID: providerID,
			StartDate:  startDate,
			EndDate:    endDate,
			Approved:   req.Approved,
			Kind:       schedule.ExceptionKind(req.Kind),
		})
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidRange) {
				writeError(w, http.StatusBadRequest, "invalid_date_range", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"id": ex.ID})
	}
}

func reserveHandler(ledger *booking.Ledger, gen *schedule.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC 3339")
			return
		}

		urgent := booking.Urgency(req.Urgency) == booking.UrgencyUrgent

		// Validate the requested interval against the provider's published
		// availability; the ledger only guards against double booking.
		ok, reason, err := gen.CheckInterval(r.Context(), providerID, start, req.DurationMinutes, urgent)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidDuration) {
				writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if !ok {
			status := http.StatusConflict
			if reason == schedule.ReasonOutsideHours || reason == schedule.ReasonOnException {
				status = http.StatusUnprocessableEntity
			}
			writeError(w, status, "slot_unavailable", "requested time is unavailable: "+string(reason))
			return
		}

		appt, err := ledger.Reserve(r.Context(), booking.ReserveParams{
			ProviderID:      providerID,
			PatientID:       patientID,
			Start:           start,
			DurationMinutes: req.DurationMinutes,
			Urgency:         booking.Urgency(req.Urgency),
			Reason:          req.Reason,
			Notes:           req.Notes,
			InitialStatus:   booking.Status(req.InitialStatus),
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func confirmHandler(ledger *booking.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := ledger.Confirm(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func cancelHandler(ledger *booking.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := ledger.Cancel(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func getAppointmentHandler(ledger *booking.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := ledger.Get(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func listPatientAppointmentsHandler(ledger *booking.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		appts, err := ledger.ListByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, appointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func completeHandler(orc *completion.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CompleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		creq, err := completionRequestFromPayload(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		res, err := orc.Complete(r.Context(), id, creq)
		if err != nil {
			handleCompletionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, completeResponse(res))
	}
}

func completionRequestFromPayload(req CompleteRequest) (completion.Request, error) {
	out := completion.Request{
		ConsultationNotes: req.ConsultationNotes,
		PaymentReceived:   req.PaymentReceived,
	}

	for _, li := range req.LineItems {
		out.LineItems = append(out.LineItems, completion.TreatmentLineItem{
			Name:       li.Name,
			ToothRef:   li.ToothRef,
			PriceCents: li.PriceCents,
		})
	}

	for _, p := range req.Prescriptions {
		out.Prescriptions = append(out.Prescriptions, completion.PrescriptionInput{
			Medication:   p.Medication,
			Dosage:       p.Dosage,
			Frequency:    p.Frequency,
			DurationText: p.DurationText,
			Instructions: p.Instructions,
		})
	}

	if req.FollowUp != nil && req.FollowUp.Needed {
		start, err := time.Parse(time.RFC3339, req.FollowUp.Start)
		if err != nil {
			return out, errors.New("follow_up.start must be RFC 3339")
		}
		out.FollowUp = &completion.FollowUp{
			Needed:          true,
			Start:           start,
			DurationMinutes: req.FollowUp.DurationMinutes,
		}
	}

	if req.TreatmentPlan != nil {
		ref := &completion.TreatmentPlanRef{}
		if req.TreatmentPlan.LinkExistingID != nil {
			id, err := uuid.Parse(*req.TreatmentPlan.LinkExistingID)
			if err != nil {
				return out, errors.New("treatment_plan.link_existing_id must be a valid UUID")
			}
			ref.LinkExistingID = &id
		}
		if req.TreatmentPlan.CreateNew != nil {
			nw := &completion.NewTreatmentPlan{
				Title:              req.TreatmentPlan.CreateNew.Title,
				Diagnosis:          req.TreatmentPlan.CreateNew.Diagnosis,
				Priority:           req.TreatmentPlan.CreateNew.Priority,
				EstimatedCostCents: req.TreatmentPlan.CreateNew.EstimatedCostCents,
			}
			if req.TreatmentPlan.CreateNew.StartDate != "" {
				d, err := time.Parse("2006-01-02", req.TreatmentPlan.CreateNew.StartDate)
				if err != nil {
					return out, errors.New("treatment_plan.create_new.start_date must be YYYY-MM-DD")
				}
				nw.StartDate = d
			}
			ref.CreateNew = nw
		}
		out.TreatmentPlan = ref
	}

	return out, nil
}

func completeResponse(res *completion.Result) CompleteResponse {
	out := CompleteResponse{
		TreatmentPlanID: res.TreatmentPlanID,
		FollowUpID:      res.FollowUpID,
	}
	if res.Invoice != nil {
		out.InvoiceID = &res.Invoice.ID
	}
	if res.PaymentRequest != nil {
		out.PaymentRequestID = &res.PaymentRequest.ID
	}
	if res.Appointment != nil {
		out.Appointment = &AppointmentResponse{
			ID:        res.Appointment.ID,
			PatientID: res.Appointment.PatientID,
			Status:    res.Appointment.Status,
			Start:     res.Appointment.Start,
		}
	}
	for _, s := range res.Steps {
		out.Steps = append(out.Steps, StepResultPayload{
			Step:   s.Step,
			Status: string(s.Status),
			Error:  s.Error,
		})
	}
	return out
}

func appointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		ProviderID:      a.ProviderID,
		Start:           a.Start,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Urgency:         string(a.Urgency),
		Reason:          a.Reason,
		TreatmentPlanID: a.TreatmentPlanID,
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "requested interval is no longer free, refresh availability and re-select")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleCompletionError(w http.ResponseWriter, err error) {
	var cerr *completion.Error
	if errors.As(err, &cerr) {
		switch {
		case errors.Is(cerr.Err, booking.ErrAppointmentNotFound):
			writeError(w, http.StatusNotFound, "appointment_not_found", cerr.Error())
		case errors.Is(cerr.Err, booking.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "invalid_transition", cerr.Error())
		default:
			writeError(w, http.StatusUnprocessableEntity, "completion_error", cerr.Error())
		}
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
