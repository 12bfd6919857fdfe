package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/carelane/previsit/internal/core/dashboard"
	"github.com/carelane/previsit/internal/core/evidence"
	"github.com/carelane/previsit/internal/core/intake"
	"github.com/carelane/previsit/internal/core/model"
	"github.com/carelane/previsit/internal/core/report"
	"github.com/carelane/previsit/internal/core/session"
	"github.com/carelane/previsit/internal/store"
)

// SubmitVoiceTurn runs one voice turn: multipart "audio" part plus an
// optional "settings" JSON field, correlated by the sid query param.
func (s *Server) SubmitVoiceTurn(c *gin.Context) {
	sid := c.Query("sid")
	if sid == "" {
		// Best-effort correlation when the client sends no session id.
		sid = session.FallbackKey(c.ClientIP(), c.GetHeader("User-Agent"))
	}

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio received"})
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio received"})
		return
	}

	var settings intake.Settings
	if raw := c.PostForm("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings"})
			return
		}
	}

	res, err := s.Intake.SubmitTurn(c.Request.Context(), sid, audio, settings)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("sid", sid).Msg("voice turn failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "voice turn failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcription": res.Transcript,
		"text":          res.ReplyText,
		"audioData":     base64.StdEncoding.EncodeToString(res.ReplyAudio),
		"audioFormat":   res.AudioFormat,
	})
}

type explainRequest struct {
	Insight string                 `json:"insight"`
	EMRHits []model.EvidenceHit    `json:"emrHits"`
	EMR     map[string]interface{} `json:"emr"`
}

// ExplainInsight finds (or accepts) the EMR evidence for an insight and
// returns the narrated rationale. Provider failures are absorbed into
// fallback text, so this endpoint never reports an upstream error.
func (s *Server) ExplainInsight(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Insight == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'insight' text"})
		return
	}

	hits := req.EMRHits
	if hits == nil {
		record := req.EMR
		if record == nil {
			record = s.Record
		}
		hits = evidence.FindEvidence(record, req.Insight)
	}

	res := s.Explainer.Explain(c.Request.Context(), req.Insight, hits)
	c.JSON(http.StatusOK, res)
}

type completeIntakeRequest struct {
	SessionID string `json:"sessionId"`
	PatientID string `json:"patientId"`
}

// CompleteIntake finalizes a session: builds the annotated graph
// (best-effort), persists the report, marks the session terminal, and
// notifies the dashboard. A failed build leaves the patient unmarked
// and no partial report behind.
func (s *Server) CompleteIntake(c *gin.Context) {
	var req completeIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" || req.PatientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and patientId are required"})
		return
	}

	sess, ok := s.Intake.Sessions().Lookup(req.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	turns := sess.Turns()
	if len(turns) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session has no transcript"})
		return
	}

	patientName := req.PatientID
	if p, err := s.Reconciler.Patient(req.PatientID); err == nil {
		patientName = p.Name
	}

	ctx := c.Request.Context()
	annotated, err := s.Annotator.BuildAndStore(ctx, report.RenderTranscript(turns))
	if err != nil {
		// The graph is supplementary; the report ships without it.
		log.Warn().Err(err).Str("sid", req.SessionID).Msg("graph annotation unavailable")
		annotated = nil
	}

	rep, err := s.Builder.Build(ctx, turns, req.PatientID, patientName, s.Record, annotated)
	if err != nil {
		log.Error().Err(err).Str("sid", req.SessionID).Msg("report build failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	sess.Complete()
	if err := s.Reconciler.ObserveCompletion(ctx, req.PatientID, rep.ReportID); err != nil {
		log.Warn().Err(err).Str("patient", req.PatientID).Msg("completion not reflected on dashboard")
	}

	log.Info().Str("sid", req.SessionID).Str("reportId", rep.ReportID).Msg("intake completed")
	c.JSON(http.StatusOK, gin.H{"reportId": rep.ReportID, "raw": rep.Raw})
}

func (s *Server) ListPatients(c *gin.Context) {
	if err := s.Reconciler.Refresh(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("report index refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list patients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": s.Reconciler.Patients()})
}

func (s *Server) SendIntakeRequest(c *gin.Context) {
	if err := s.Reconciler.SendIntakeRequest(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown patient"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (s *Server) GetReport(c *gin.Context) {
	rep, err := report.Load(c.Request.Context(), s.Store, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		log.Error().Err(err).Str("reportId", c.Param("id")).Msg("report load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": s.Reconciler.Notifications()})
}

// ObserveCompletion ingests the navigation-carried completion signal.
// Safe to re-deliver: refreshes are idempotent per patient id.
func (s *Server) ObserveCompletion(c *gin.Context) {
	patientID := c.Query("patientId")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patientId is required"})
		return
	}
	err := s.Reconciler.ObserveCompletion(c.Request.Context(), patientID, c.Query("reportId"))
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownPatient) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown patient"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record completion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": s.Reconciler.Patients()})
}
