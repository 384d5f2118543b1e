package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

type jobRepoFake struct {
	jobs      map[string]*domain.ExportJob
	createErr error
	updateErr error
}

func newJobRepoFake() *jobRepoFake {
	return &jobRepoFake{jobs: map[string]*domain.ExportJob{}}
}

func (f *jobRepoFake) CreateJob(_ context.Context, job *domain.ExportJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyJob := *job
	f.jobs[job.ID] = &copyJob
	return nil
}

func (f *jobRepoFake) GetJob(_ context.Context, id string) (*domain.ExportJob, error) {
	if j, ok := f.jobs[id]; ok {
		copyJob := *j
		return &copyJob, nil
	}
	return nil, domain.WrapError(domain.ErrExportNotFound, "get job", errors.New(id))
}

func (f *jobRepoFake) UpdateJobStatus(_ context.Context, id string, status domain.ExportStatus, artifactKey, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	j, ok := f.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrExportNotFound, "update job", errors.New(id))
	}
	j.Status = status
	if artifactKey != "" {
		j.ArtifactKey = artifactKey
	}
	j.Error = errMessage
	return nil
}

type queueFake struct {
	published  []string
	publishErr error
}

func (f *queueFake) PublishExportRequested(_ context.Context, jobID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeExportRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type artifactStoreFake struct {
	saved   map[string][]byte
	saveErr error
	openErr error
}

func newArtifactStoreFake() *artifactStoreFake {
	return &artifactStoreFake{saved: map[string][]byte{}}
}

func (f *artifactStoreFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = b
	return nil
}

func (f *artifactStoreFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	b, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such artifact")
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

func TestExportRequestPublishesJob(t *testing.T) {
	sessions := newSessionRepoFake()
	sessions.sessions["s-1"] = &domain.Session{ID: "s-1", Name: "Week 12"}
	jobs := newJobRepoFake()
	queue := &queueFake{}
	uc := NewExportUseCase(sessions, jobs, queue, newArtifactStoreFake())

	job, err := uc.Request(context.Background(), "s-1", domain.ExportPDF)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if job.Status != domain.ExportPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != job.ID {
		t.Fatalf("published = %v, want [%s]", queue.published, job.ID)
	}
	if _, ok := jobs.jobs[job.ID]; !ok {
		t.Fatalf("job not persisted")
	}
}

func TestExportRequestUnknownSession(t *testing.T) {
	uc := NewExportUseCase(newSessionRepoFake(), newJobRepoFake(), &queueFake{}, newArtifactStoreFake())
	if _, err := uc.Request(context.Background(), "missing", domain.ExportCSV); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExportRequestPublishFailureMarksJobFailed(t *testing.T) {
	sessions := newSessionRepoFake()
	sessions.sessions["s-1"] = &domain.Session{ID: "s-1", Name: "Week 12"}
	jobs := newJobRepoFake()
	queue := &queueFake{publishErr: errors.New("nats unavailable")}
	uc := NewExportUseCase(sessions, jobs, queue, newArtifactStoreFake())

	_, err := uc.Request(context.Background(), "s-1", domain.ExportExcel)
	if err == nil {
		t.Fatalf("expected error")
	}
	var failed *domain.ExportJob
	for _, j := range jobs.jobs {
		failed = j
	}
	if failed == nil || failed.Status != domain.ExportFailed {
		t.Fatalf("expected failed job, got %+v", failed)
	}
}

func TestExportOpenArtifact(t *testing.T) {
	jobs := newJobRepoFake()
	jobs.jobs["j-1"] = &domain.ExportJob{ID: "j-1", Status: domain.ExportDone, ArtifactKey: "j-1.pdf"}
	jobs.jobs["j-2"] = &domain.ExportJob{ID: "j-2", Status: domain.ExportRendering}
	store := newArtifactStoreFake()
	store.saved["j-1.pdf"] = []byte("%PDF-1.4")
	uc := NewExportUseCase(newSessionRepoFake(), jobs, &queueFake{}, store)

	job, rc, err := uc.OpenArtifact(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("OpenArtifact() error = %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "%PDF-1.4" {
		t.Fatalf("artifact body = %q", body)
	}
	if job.ArtifactKey != "j-1.pdf" {
		t.Fatalf("artifact key = %q", job.ArtifactKey)
	}

	if _, _, err := uc.OpenArtifact(context.Background(), "j-2"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("unfinished job: expected invalid-input error, got %v", err)
	}
	if _, _, err := uc.OpenArtifact(context.Background(), "missing"); !domain.IsKind(err, domain.ErrExportNotFound) {
		t.Fatalf("unknown job: expected not-found error, got %v", err)
	}
}
