// Package dashboard maintains the doctor-facing view state: the patient
// list, intake statuses, notifications, and the patient-to-latest-report
// mapping. It reconciles two sources — one-shot completion signals
// carried by navigation, and the persisted report index — without
// duplicating either.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/store"
)

// ErrUnknownPatient is returned for patient ids outside the roster.
var ErrUnknownPatient = errors.New("unknown patient")

// PatientView is a Patient plus the id of their latest report, if any.
type PatientView struct {
	model.Patient
	ReportID string `json:"reportId,omitempty"`
}

type reportRef struct {
	reportID  string
	createdAt time.Time
}

type Reconciler struct {
	mu            sync.Mutex
	store         store.Store
	patients      map[string]*model.Patient
	order         []string
	notifications []model.Notification // newest first
	reports       map[string]reportRef // patientID -> latest report
	processed     map[string]struct{}  // completion signals already handled
}

func NewReconciler(st store.Store, seed []model.Patient) *Reconciler {
	r := &Reconciler{
		store:     st,
		patients:  make(map[string]*model.Patient),
		reports:   make(map[string]reportRef),
		processed: make(map[string]struct{}),
	}
	for i := range seed {
		p := seed[i]
		r.patients[p.ID] = &p
		r.order = append(r.order, p.ID)
	}
	return r
}

// SeedPatients is the demo roster from the original deployment; patient
// lists are not persisted in this design.
func SeedPatients() []model.Patient {
	sarahIntake := time.Date(2025, 9, 27, 14, 30, 0, 0, time.UTC)
	return []model.Patient{
		{
			ID: "1", Name: "Sarah Johnson", Age: 34,
			AppointmentDate: time.Date(2025, 9, 28, 10, 0, 0, 0, time.UTC),
			Status:          model.StatusCompleted,
			LastIntake:      &sarahIntake,
			ChiefComplaint:  "Persistent headaches and dizziness",
		},
		{
			ID: "2", Name: "Michael Chen", Age: 45,
			AppointmentDate: time.Date(2025, 9, 28, 14, 0, 0, 0, time.UTC),
			Status:          model.StatusNeedsIntake,
		},
		{
			ID: "3", Name: "Emily Rodriguez", Age: 28,
			AppointmentDate: time.Date(2025, 9, 29, 9, 0, 0, 0, time.UTC),
			Status:          model.StatusPending,
		},
	}
}

// Patients returns the roster in seed order with each patient's latest
// report id attached.
func (r *Reconciler) Patients() []PatientView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PatientView, 0, len(r.order))
	for _, id := range r.order {
		v := PatientView{Patient: *r.patients[id]}
		if ref, ok := r.reports[id]; ok {
			v.ReportID = ref.reportID
		}
		out = append(out, v)
	}
	return out
}

func (r *Reconciler) Patient(id string) (PatientView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return PatientView{}, ErrUnknownPatient
	}
	v := PatientView{Patient: *p}
	if ref, ok := r.reports[id]; ok {
		v.ReportID = ref.reportID
	}
	return v, nil
}

// SendIntakeRequest moves a patient to pending and records the "sent"
// notification. Already-pending or completed patients are left alone.
func (r *Reconciler) SendIntakeRequest(patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[patientID]
	if !ok {
		return ErrUnknownPatient
	}
	if p.Status == model.StatusNeedsIntake {
		p.Status = model.StatusPending
	}
	r.pushNotification(model.Notification{
		Message:   fmt.Sprintf("Intake request sent to %s", p.Name),
		Type:      model.NotificationSent,
		PatientID: patientID,
	})
	return nil
}

// ObserveCompletion handles the navigation-carried completion signal.
// Idempotent against re-delivery: a patient id already processed
// produces no second status change and no second notification.
func (r *Reconciler) ObserveCompletion(ctx context.Context, patientID, reportID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[patientID]
	if !ok {
		return ErrUnknownPatient
	}
	if _, done := r.processed[patientID]; done {
		return nil
	}
	r.processed[patientID] = struct{}{}

	if p.Status != model.StatusCompleted {
		p.Status = model.StatusCompleted
		now := time.Now().UTC()
		p.LastIntake = &now
	}

	if reportID != "" {
		r.recordReport(ctx, patientID, reportID)
	}

	r.pushNotification(model.Notification{
		Message:   fmt.Sprintf("%s completed pre-appointment intake", p.Name),
		Type:      model.NotificationCompleted,
		PatientID: patientID,
	})
	return nil
}

// recordReport updates the patient->report mapping, never letting an
// older report displace a newer one. Caller holds the lock.
func (r *Reconciler) recordReport(ctx context.Context, patientID, reportID string) {
	createdAt := time.Now().UTC()
	if data, err := r.store.Get(ctx, model.ReportKey(reportID)); err == nil {
		var rep model.Report
		if json.Unmarshal(data, &rep) == nil && !rep.CreatedAt.IsZero() {
			createdAt = rep.CreatedAt
		}
	}
	if existing, ok := r.reports[patientID]; ok && existing.createdAt.After(createdAt) {
		return
	}
	r.reports[patientID] = reportRef{reportID: reportID, createdAt: createdAt}
}

// Refresh scans the persisted report index and keeps, per patient, the
// report with the latest CreatedAt. This path is the source of truth
// when a completion signal carried no report id.
func (r *Reconciler) Refresh(ctx context.Context) error {
	entries, err := r.store.Scan(ctx, model.ReportKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to scan report index: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, data := range entries {
		var rep model.Report
		if err := json.Unmarshal(data, &rep); err != nil {
			continue // unreadable record; skip, never fail the scan
		}
		if rep.PatientID == "" || rep.ReportID == "" {
			continue
		}
		existing, ok := r.reports[rep.PatientID]
		if !ok || rep.CreatedAt.After(existing.createdAt) {
			r.reports[rep.PatientID] = reportRef{reportID: rep.ReportID, createdAt: rep.CreatedAt}
		}
	}
	return nil
}

// Notifications returns the append-only log, newest first.
func (r *Reconciler) Notifications() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// pushNotification prepends. Caller holds the lock.
func (r *Reconciler) pushNotification(n model.Notification) {
	n.ID = uuid.NewString()
	n.Timestamp = time.Now().UTC()
	r.notifications = append([]model.Notification{n}, r.notifications...)
}
