//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/certiva/certiva-backend/internal/config"
	"github.com/certiva/certiva-backend/internal/model"
	"github.com/certiva/certiva-backend/internal/service"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

var (
	baseURL       string
	adminToken    string
	studentToken  string
	examinerToken string

	examID        string
	sessionID     string
	resultID      string
	certificateID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// Mint tokens directly with the shared secret; in production these come
	// from the identity service.
	auth := service.NewAuthService(config.Load())
	var err error
	if adminToken, err = auth.GenerateToken(uuid.New(), service.RoleAdmin); err != nil {
		fmt.Printf("token setup failed: %v\n", err)
		os.Exit(1)
	}
	if studentToken, err = auth.GenerateToken(uuid.New(), service.RoleStudent); err != nil {
		fmt.Printf("token setup failed: %v\n", err)
		os.Exit(1)
	}
	if examinerToken, err = auth.GenerateToken(uuid.New(), service.RoleExaminer); err != nil {
		fmt.Printf("token setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func TestE2EFlow(t *testing.T) {
	// Step 1: Create exam (Admin)
	t.Run("CreateExam", func(t *testing.T) {
		reqBody := model.CreateExamRequest{
			Title:           "E2E Networking Exam",
			DurationSeconds: 1800,
			PassingScore:    60,
			Questions: []model.CreateQuestionRequest{
				{
					Kind:   "MULTIPLE_CHOICE",
					Prompt: "Which protocol retransmits lost segments?",
					Options: []model.Option{
						{ID: "a", Text: "TCP"},
						{ID: "b", Text: "UDP"},
					},
					CorrectAnswer: "a",
				},
				{
					Kind:   "TRUE_FALSE",
					Prompt: "UDP guarantees ordering.",
					Options: []model.Option{
						{ID: "true", Text: "True"},
						{ID: "false", Text: "False"},
					},
					CorrectAnswer: "false",
				},
				{
					Kind:     "SUBJECTIVE",
					Prompt:   "Explain the TCP three-way handshake.",
					MaxWords: 100,
					MaxScore: 10,
				},
			},
		}
		resp, err := post("/admin/exams", reqBody, adminToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Exam model.Exam `json:"exam"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		examID = body.Data.Exam.ID.String()
		if body.Data.Exam.Status != model.ExamStatusDraft {
			t.Fatalf("expected DRAFT, got %s", body.Data.Exam.Status)
		}
	})

	// Step 2: Student cannot start before publish
	t.Run("StartBeforePublishRejected", func(t *testing.T) {
		resp, err := post("/student/exams/"+examID+"/sessions", nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 3: Publish (Admin)
	t.Run("PublishExam", func(t *testing.T) {
		resp, err := post("/admin/exams/"+examID+"/publish", nil, adminToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}
	})

	// Step 4: Start session (Student), twice. The second start must return
	// the same session.
	t.Run("StartSession", func(t *testing.T) {
		first := startSession(t)
		second := startSession(t)
		if first != second {
			t.Fatalf("duplicate start created a new session: %s vs %s", first, second)
		}
		sessionID = first
	})

	// Step 5: Answer every question. Correct answers come from the admin
	// view; the student session payload must not contain them.
	t.Run("SaveAnswers", func(t *testing.T) {
		resp, err := get("/admin/exams/"+examID, adminToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Data struct {
				Exam model.Exam `json:"exam"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)

		for _, q := range body.Data.Exam.Questions {
			value := q.CorrectAnswer
			if q.Kind == model.QuestionKindSubjective {
				value = "SYN, SYN-ACK, ACK exchanged before data flows."
			}
			r, err := put("/student/sessions/"+sessionID+"/answers/"+q.ID.String(),
				model.RecordAnswerRequest{Value: value}, studentToken)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if r.StatusCode != http.StatusOK {
				t.Fatalf("answer %s status %d: %s", q.ID, r.StatusCode, readBody(r))
			}
			r.Body.Close()
		}
	})

	// Step 6: Submit. Objective questions are all correct, the subjective
	// one is ungraded, so the result is PROVISIONAL.
	t.Run("SubmitSession", func(t *testing.T) {
		resp, err := post("/student/sessions/"+sessionID+"/submit", nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Result model.Result `json:"result"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		resultID = body.Data.Result.ID.String()
		if body.Data.Result.Status != model.ResultStatusProvisional {
			t.Fatalf("expected PROVISIONAL, got %s", body.Data.Result.Status)
		}

		// Submitting again must hand back the same result, not reprocess.
		again, err := post("/student/sessions/"+sessionID+"/submit", nil, studentToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer again.Body.Close()
		if again.StatusCode != http.StatusOK {
			t.Fatalf("duplicate submit status %d: %s", again.StatusCode, readBody(again))
		}
		var dup struct {
			Data struct {
				Result model.Result `json:"result"`
			} `json:"data"`
		}
		decodeJSON(t, again, &dup)
		if dup.Data.Result.ID.String() != resultID {
			t.Fatalf("duplicate submit returned a different result: %s vs %s", dup.Data.Result.ID, resultID)
		}
		if dup.Data.Result.Score != body.Data.Result.Score {
			t.Fatalf("duplicate submit changed the score: %d vs %d", dup.Data.Result.Score, body.Data.Result.Score)
		}
	})

	// Step 7: Examiner claims and grades the subjective answer.
	t.Run("ClaimAndGrade", func(t *testing.T) {
		resp, err := get("/examiner/evaluations", examinerToken)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Data struct {
				Pending []struct {
					ResultID   string `json:"result_id"`
					QuestionID string `json:"question_id"`
				} `json:"pending"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)

		questionID := ""
		for _, p := range body.Data.Pending {
			if p.ResultID == resultID {
				questionID = p.QuestionID
				break
			}
		}
		if questionID == "" {
			t.Fatalf("submitted result not in pending queue")
		}

		claimPath := "/examiner/evaluations/" + resultID + "/answers/" + questionID
		r, err := post(claimPath+"/claim", nil, examinerToken)
		if err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		if r.StatusCode != http.StatusOK {
			t.Fatalf("claim status %d: %s", r.StatusCode, readBody(r))
		}
		r.Body.Close()

		r, err = post(claimPath+"/grade", model.SubmitGradeRequest{Score: 9, Feedback: "Solid."}, examinerToken)
		if err != nil {
			t.Fatalf("grade failed: %v", err)
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			t.Fatalf("grade status %d: %s", r.StatusCode, readBody(r))
		}

		var graded struct {
			Data struct {
				Result model.Result `json:"result"`
			} `json:"data"`
		}
		decodeJSON(t, r, &graded)
		if graded.Data.Result.Status != model.ResultStatusFinal {
			t.Fatalf("expected FINAL, got %s", graded.Data.Result.Status)
		}
		if !graded.Data.Result.Passed {
			t.Fatalf("expected pass, score %d", graded.Data.Result.Score)
		}
	})

	// Step 8: Certificate shows up for the student (queue or self-heal).
	t.Run("GetCertificate", func(t *testing.T) {
		deadline := time.Now().Add(10 * time.Second)
		for {
			resp, err := get("/student/results/"+resultID+"/certificate", studentToken)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode == http.StatusOK {
				var body struct {
					Data struct {
						Certificate model.Certificate `json:"certificate"`
					} `json:"data"`
				}
				decodeJSON(t, resp, &body)
				resp.Body.Close()
				certificateID = body.Data.Certificate.ID
				break
			}
			resp.Body.Close()
			if time.Now().After(deadline) {
				t.Fatalf("certificate never issued")
			}
			time.Sleep(500 * time.Millisecond)
		}
	})

	// Step 9: Public verification without a token.
	t.Run("VerifyCertificate", func(t *testing.T) {
		resp, err := get("/public/certificates/"+certificateID+"/verify", "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
		}

		var body struct {
			Data struct {
				Certificate model.CertificateVerification `json:"certificate"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		if !body.Data.Certificate.Valid {
			t.Errorf("expected a valid certificate")
		}
	})
}

// TestExpiredSessionAutoSubmits runs an exam at the minimum allowed duration
// and waits it out: answers past the deadline must be rejected, the session
// must settle as SUBMITTED, and the result's submitted_at must land on the
// deadline rather than on whichever later moment noticed the expiry.
func TestExpiredSessionAutoSubmits(t *testing.T) {
	reqBody := model.CreateExamRequest{
		Title:           "E2E Timed Exam",
		DurationSeconds: 30,
		PassingScore:    0,
		Questions: []model.CreateQuestionRequest{
			{
				Kind:   "TRUE_FALSE",
				Prompt: "ICMP runs on top of TCP.",
				Options: []model.Option{
					{ID: "true", Text: "True"},
					{ID: "false", Text: "False"},
				},
				CorrectAnswer: "false",
			},
		},
	}
	resp, err := post("/admin/exams", reqBody, adminToken)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var created struct {
		Data struct {
			Exam model.Exam `json:"exam"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &created)
	resp.Body.Close()
	timedExamID := created.Data.Exam.ID.String()

	resp, err = post("/admin/exams/"+timedExamID+"/publish", nil, adminToken)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	resp.Body.Close()

	resp, err = post("/student/exams/"+timedExamID+"/sessions", nil, studentToken)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status %d: %s", resp.StatusCode, readBody(resp))
	}
	var started struct {
		Data struct {
			Session model.SessionState `json:"session"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &started)
	resp.Body.Close()
	timedSessionID := started.Data.Session.ID.String()
	deadline := started.Data.Session.Deadline
	questionID := started.Data.Session.Questions[0].ID.String()

	time.Sleep(time.Until(deadline) + 2*time.Second)

	// Late answer: rejected, and the session settles on the spot.
	r, err := put("/student/sessions/"+timedSessionID+"/answers/"+questionID,
		model.RecordAnswerRequest{Value: "false"}, studentToken)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if r.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for a late answer, got %d: %s", r.StatusCode, readBody(r))
	}
	r.Body.Close()

	r, err = get("/student/sessions/"+timedSessionID, studentToken)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var state struct {
		Data struct {
			Session model.SessionState `json:"session"`
		} `json:"data"`
	}
	decodeJSON(t, r, &state)
	r.Body.Close()
	if state.Data.Session.Status != model.SessionStatusSubmitted {
		t.Fatalf("expected SUBMITTED after deadline, got %s", state.Data.Session.Status)
	}
	if state.Data.Session.RemainingSeconds != 0 {
		t.Fatalf("expected no remaining time, got %f", state.Data.Session.RemainingSeconds)
	}

	r, err = get("/student/results", studentToken)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var results struct {
		Data struct {
			Results []model.Result `json:"results"`
		} `json:"data"`
	}
	decodeJSON(t, r, &results)
	r.Body.Close()

	found := false
	for _, res := range results.Data.Results {
		if res.SessionID.String() != timedSessionID {
			continue
		}
		found = true
		if res.SubmittedAt.After(deadline) {
			t.Fatalf("submitted_at %s not clamped to deadline %s", res.SubmittedAt, deadline)
		}
		if res.Score != 0 {
			t.Fatalf("expected score 0 with no answers honored, got %d", res.Score)
		}
	}
	if !found {
		t.Fatalf("no result recorded for the expired session")
	}
}

func startSession(t *testing.T) string {
	resp, err := post("/student/exams/"+examID+"/sessions", nil, studentToken)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d: %s", resp.StatusCode, readBody(resp))
	}

	var body struct {
		Data struct {
			Session model.SessionState `json:"session"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &body)
	return body.Data.Session.ID.String()
}

// Helpers

func post(path string, body interface{}, token string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest("POST", baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func put(path string, body interface{}, token string) (*http.Response, error) {
	jsonBytes, _ := json.Marshal(body)
	req, err := http.NewRequest("PUT", baseURL+path, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func get(path string, token string) (*http.Response, error) {
	req, err := http.NewRequest("GET", baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
