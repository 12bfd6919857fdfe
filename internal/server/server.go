package server

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/carelane/previsit/internal/config"
	"github.com/carelane/previsit/internal/core/dashboard"
	"github.com/carelane/previsit/internal/core/emr"
	"github.com/carelane/previsit/internal/core/explain"
	"github.com/carelane/previsit/internal/core/graph"
	"github.com/carelane/previsit/internal/core/intake"
	"github.com/carelane/previsit/internal/core/report"
	"github.com/carelane/previsit/internal/core/session"
	"github.com/carelane/previsit/internal/driver"
	"github.com/carelane/previsit/internal/llm"
	"github.com/carelane/previsit/internal/store"
)

type Server struct {
	Intake     *intake.Service
	Explainer  *explain.Explainer
	Builder    *report.Builder
	Reconciler *dashboard.Reconciler
	Annotator  *graph.Annotator
	Store      store.Store
	Record     map[string]interface{}
}

// NewServer wires the whole service from config and environment.
func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfgPath).Msg("config file not loaded, using defaults")
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	st, err := store.New(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	chat, err := llm.NewChatClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize llm client")
	}
	speech, err := llm.NewSpeechClient(cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize speech client")
	}

	var graphDriver driver.GraphDriver
	if cfg.Graph.Enabled {
		d, err := driver.NewNeo4jDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
		if err != nil {
			// Graph persistence is optional; the report keeps its embedded copy.
			log.Warn().Err(err).Msg("neo4j unavailable, graph persistence disabled")
		} else {
			if err := d.BuildIndices(context.Background()); err != nil {
				log.Warn().Err(err).Msg("failed to build graph indices")
			}
			graphDriver = d
		}
	}

	record := emr.Demo()
	sessions := session.NewStore()

	return &Server{
		Intake: intake.NewService(speech, chat, speech, sessions,
			cfg.Prompts.Conversation, record,
			cfg.Speech.Language, cfg.Speech.Voice, cfg.Speech.Speed),
		Explainer:  explain.NewExplainer(chat, cfg.Prompts.Explain),
		Builder:    report.NewBuilder(chat, st, cfg.Prompts.Report),
		Reconciler: dashboard.NewReconciler(st, dashboard.SeedPatients()),
		Annotator:  graph.NewAnnotator(chat, graphDriver, cfg.Prompts.GraphExtraction, cfg.Prompts.NodeSummary, false),
		Store:      st,
		Record:     record,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/api/voice", s.SubmitVoiceTurn)
	r.POST("/api/explain", s.ExplainInsight)
	r.POST("/api/intake/complete", s.CompleteIntake)

	r.GET("/api/patients", s.ListPatients)
	r.POST("/api/patients/:id/intake-request", s.SendIntakeRequest)
	r.GET("/api/reports/:id", s.GetReport)
	r.GET("/api/notifications", s.ListNotifications)
	r.GET("/api/dashboard/completions", s.ObserveCompletion)

	return r
}
