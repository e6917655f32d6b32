package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mealweek/internal/intake"
	"mealweek/internal/planner"
	"mealweek/internal/profile"
)

// sessionStateResponse is the wire shape of an in-progress intake
// conversation. Question is omitted once the session leaves the asking
// stage.
type sessionStateResponse struct {
	Stage      intake.Stage     `json:"stage"`
	Index      int              `json:"index"`
	Total      int              `json:"total"`
	Question   *intake.Question `json:"question,omitempty"`
	Transcript []intake.Entry   `json:"transcript"`
	Pending    intake.Value     `json:"pending"`
}

func sessionState(s intake.Session) sessionStateResponse {
	resp := sessionStateResponse{
		Stage:      s.Stage,
		Index:      s.Index,
		Total:      s.Total(),
		Transcript: s.Transcript,
		Pending:    s.Pending,
	}
	if s.Stage == intake.StageAsking {
		q := s.Question()
		resp.Question = &q
	}
	return resp
}

// planResponse reports the plan content for the current week. Cached is
// false only when the plan was produced but could not be persisted.
type planResponse struct {
	WeekStart string `json:"week_start"`
	Content   string `json:"content"`
	Cached    bool   `json:"cached"`
}

// startIntakeHandler begins a new intake session, or resumes the live
// one so a page reload does not restart the conversation.
func (s *Server) startIntakeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	sess, err := s.sessions.GetActive(ctx, userID, s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load intake session")
		return
	}
	if sess != nil {
		writeJSONResponse(w, http.StatusOK, sessionState(*sess))
		return
	}

	fresh := intake.NewSession(intake.Catalog())
	if err := s.sessions.Save(ctx, userID, fresh, sessionTTL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save intake session")
		return
	}
	writeJSONResponse(w, http.StatusCreated, sessionState(fresh))
}

// answerHandler submits the raw answer text for the current question.
// On the last question the session finalizes: the answers are
// normalized into the profile and the session is discarded.
func (s *Server) answerHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.activeSession(ctx, w, userID)
	if !ok {
		return
	}
	if sess.Stage != intake.StageAsking {
		writeError(w, http.StatusConflict, "intake session is already complete")
		return
	}

	value, err := intake.ParseValue(sess.Question(), req.Answer)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	next, err := sess.Submit(value)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if next.Stage == intake.StageFinalizing {
		p := profile.FromAnswers(userID, next.Answers)
		if err := s.profiles.Upsert(ctx, p); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
		done, err := next.Finalize()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to finalize intake session")
			return
		}
		if err := s.sessions.Delete(ctx, userID); err != nil {
			log.Printf("Warning: failed to delete finished session for user %s: %v", userID, err)
		}
		writeJSONResponse(w, http.StatusOK, struct {
			Stage   intake.Stage    `json:"stage"`
			Profile profile.Profile `json:"profile"`
		}{Stage: done.Stage, Profile: p})
		return
	}

	if err := s.sessions.Save(ctx, userID, next, sessionTTL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save intake session")
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionState(next))
}

// backHandler steps the session to the previous question.
func (s *Server) backHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	sess, ok := s.activeSession(ctx, w, userID)
	if !ok {
		return
	}

	next := sess.Back()
	if err := s.sessions.Save(ctx, userID, next, sessionTTL); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save intake session")
		return
	}
	writeJSONResponse(w, http.StatusOK, sessionState(next))
}

func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	p, err := s.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "no profile found")
		return
	}
	writeJSONResponse(w, http.StatusOK, p)
}

// putProfileHandler replaces the caller's profile wholesale. The user id
// in the body is ignored; the token decides whose profile is written.
func (s *Server) putProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.UserID = userID

	if msg := validateProfile(p); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	if err := s.profiles.Upsert(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	saved, err := s.profiles.GetByUserID(r.Context(), userID)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "failed to load saved profile")
		return
	}
	writeJSONResponse(w, http.StatusOK, saved)
}

func (s *Server) planHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	s.respondWithPlan(w, r, userID, false)
}

func (s *Server) regenerateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	s.respondWithPlan(w, r, userID, true)
}

func (s *Server) respondWithPlan(w http.ResponseWriter, r *http.Request, userID string, force bool) {
	now := s.now()
	weekKey := planner.WeekKey(planner.StartOfWeek(now))

	var (
		content string
		err     error
	)
	if force {
		content, err = s.planner.Regenerate(r.Context(), userID, now)
	} else {
		content, err = s.planner.GetOrGenerate(r.Context(), userID, now)
	}

	if err != nil {
		var storeErr *planner.StoreWriteError
		if errors.As(err, &storeErr) {
			// The plan exists but was not cached; hand it over anyway.
			log.Printf("Warning: plan for user %s not cached: %v", userID, err)
			writeJSONResponse(w, http.StatusOK, planResponse{WeekStart: weekKey, Content: storeErr.Content, Cached: false})
			return
		}
		mapPlanError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, planResponse{WeekStart: weekKey, Content: content, Cached: true})
}

// writeValidationError maps an intake validation failure to a 422 with
// the offending question id.
func writeValidationError(w http.ResponseWriter, err error) {
	var vErr *intake.ValidationError
	if errors.As(err, &vErr) {
		writeJSONResponse(w, http.StatusUnprocessableEntity, struct {
			Error      string `json:"error"`
			QuestionID string `json:"question_id"`
		}{Error: vErr.Reason, QuestionID: vErr.QuestionID})
		return
	}
	writeError(w, http.StatusConflict, err.Error())
}

// validateProfile checks the enum-valued fields of a direct profile
// write. Empty values are allowed; the assembler's defaults only apply
// to intake-built profiles.
func validateProfile(p profile.Profile) string {
	if p.SkillLevel != "" && !oneOf(p.SkillLevel, intake.SkillLevelOptions) {
		return "skill_level must be one of: beginner, confident, advanced"
	}
	if p.ExplorationPref != "" && !oneOf(p.ExplorationPref, intake.ExplorationOptions) {
		return "exploration_pref must be one of: yes, occasionally, no"
	}
	if p.Tone != "" && !oneOf(p.Tone, intake.ToneOptions) {
		return "tone must be one of: coach, companion"
	}
	for _, day := range p.CookingDays {
		if !oneOf(day, intake.WeekdayOptions) {
			return "cooking_days entries must be Mon..Sun"
		}
	}
	for _, goal := range p.Goals {
		if !oneOf(goal, intake.GoalOptions) {
			return "goals entries must be one of: Save time, Eat healthier, Save money"
		}
	}
	return ""
}

func oneOf(v string, options []string) bool {
	for _, opt := range options {
		if v == opt {
			return true
		}
	}
	return false
}
