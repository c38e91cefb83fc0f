package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"xray-assistant/internal/domain/entity"
	"xray-assistant/internal/domain/port"
	"xray-assistant/internal/infrastructure/model"
	"xray-assistant/internal/infrastructure/parser"
	"xray-assistant/internal/infrastructure/storage"
	"xray-assistant/internal/infrastructure/vision"
)

// blockingModel ждёт отмены контекста
type blockingModel struct{}

func (blockingModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// stubbornModel не следит за контекстом
type stubbornModel struct{ delay time.Duration }

func (m stubbornModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	time.Sleep(m.delay)
	return "Objective:\n", nil
}

type failingModel struct{ calls atomic.Int32 }

func (m *failingModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	m.calls.Add(1)
	return "", errors.New("401 unauthorized")
}

type recordingModel struct {
	answers  []string
	received [][]entity.Turn
}

func (m *recordingModel) Complete(ctx context.Context, history []entity.Turn) (string, error) {
	m.received = append(m.received, history)
	answer := m.answers[0]
	m.answers = m.answers[1:]
	return answer, nil
}

type fixture struct {
	fs            afero.Fs
	store         *storage.FileImageStore
	conversations *storage.MemoryConversationRepository
	path          string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	store := storage.NewFileImageStore(fs, "uploads")

	img := image.NewGray(image.Rect(0, 0, 100, 80))
	for i := range img.Pix {
		img.Pix[i] = 90
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path, err := store.Save(context.Background(), "pano.png", buf.Bytes())
	require.NoError(t, err)

	return &fixture{
		fs:            fs,
		store:         store,
		conversations: storage.NewMemoryConversationRepository(),
		path:          path,
	}
}

func (f *fixture) service(m port.ChatModel, timeouts Timeouts) *AnalysisService {
	annotator := vision.NewAnnotator(vision.Options{Pick: func(int) int { return 0 }})
	return NewAnalysisService(f.conversations, m, annotator, f.store, timeouts)
}

func TestAnalyze_SingleFinding(t *testing.T) {
	f := newFixture(t)
	svc := f.service(model.NewScriptedModel("Objective:\nFINDING: Cavity\nLOCATION: [100,100,200,200]\n"), Timeouts{})
	ctx := context.Background()

	result, err := svc.Analyze(ctx, "s1", f.path)
	require.NoError(t, err)
	require.NotEmpty(t, result.ID)

	require.Len(t, result.Findings, 1)
	nf := result.Findings[0]
	require.Equal(t, 1, nf.Number)
	require.Equal(t, "Cavity", nf.Description)
	require.Equal(t, entity.Box{X1: 100, Y1: 100, X2: 200, Y2: 200}, nf.Coordinates)
	require.Equal(t, "#FF0000", nf.Color)
	require.Contains(t, result.SOAP, entity.SectionObjective)

	require.Equal(t, f.store.AnnotatedPath(f.path), result.AnnotatedImagePath)
	raw, err := afero.ReadFile(f.fs, result.AnnotatedImagePath)
	require.NoError(t, err)
	annotated, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 80), annotated.Bounds())

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, entity.RoleUser, history[0].Role)
	require.Equal(t, parser.AnalysisPrompt, history[0].Text)
	require.NotNil(t, history[0].Image)
	require.Equal(t, "image/png", history[0].Image.MIMEType)
	require.Equal(t, entity.RoleAssistant, history[1].Role)
}

func TestAnalyze_UnparseableAnswerDegrades(t *testing.T) {
	f := newFixture(t)
	svc := f.service(model.NewScriptedModel("I cannot help with that."), Timeouts{})

	result, err := svc.Analyze(context.Background(), "s1", f.path)
	require.NoError(t, err)
	require.Empty(t, result.SOAP)
	require.Empty(t, result.Findings)
}

func TestChat_AppendsTurnsInOrder(t *testing.T) {
	f := newFixture(t)
	m := &recordingModel{answers: []string{"first answer", "second answer"}}
	svc := f.service(m, Timeouts{})
	ctx := context.Background()

	answer, err := svc.Chat(ctx, "s1", "what is this?")
	require.NoError(t, err)
	require.Equal(t, "first answer", answer)

	answer, err = svc.Chat(ctx, "s1", "and this?")
	require.NoError(t, err)
	require.Equal(t, "second answer", answer)

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, []entity.Role{entity.RoleUser, entity.RoleAssistant, entity.RoleUser, entity.RoleAssistant},
		[]entity.Role{history[0].Role, history[1].Role, history[2].Role, history[3].Role})
	require.Equal(t, "what is this?", history[0].Text)
	require.Equal(t, "second answer", history[3].Text)

	// вторая реплика ушла в модель вместе с предыдущими
	require.Len(t, m.received[1], 3)

	other, err := svc.History(ctx, "s2")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestChat_EmptyMessage(t *testing.T) {
	f := newFixture(t)
	svc := f.service(model.NewScriptedModel("x"), Timeouts{})

	_, err := svc.Chat(context.Background(), "s1", "  \n")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAnalyze_TimeoutCancelsModel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	svc := f.service(blockingModel{}, Timeouts{Analysis: 20 * time.Millisecond})
	ctx := context.Background()

	_, err := svc.Analyze(ctx, "s1", f.path)
	require.ErrorIs(t, err, entity.ErrTimeout)
	require.False(t, errors.Is(err, entity.ErrUpstream))

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestChat_TimeoutWhenModelIgnoresContext(t *testing.T) {
	f := newFixture(t)
	svc := f.service(stubbornModel{delay: 300 * time.Millisecond}, Timeouts{Chat: 20 * time.Millisecond})

	started := time.Now()
	_, err := svc.Chat(context.Background(), "s1", "hello")
	require.ErrorIs(t, err, entity.ErrTimeout)
	require.Less(t, time.Since(started), 250*time.Millisecond)
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	f := newFixture(t)
	m := &failingModel{}
	svc := f.service(m, Timeouts{})

	_, err := svc.Analyze(context.Background(), "s1", f.path)
	require.ErrorIs(t, err, entity.ErrUpstream)
	require.False(t, errors.Is(err, entity.ErrTimeout))
	require.ErrorContains(t, err, "401 unauthorized")
}

func TestAnalyze_InvalidImageNeverReachesModel(t *testing.T) {
	f := newFixture(t)
	m := &failingModel{}
	svc := f.service(m, Timeouts{})

	path, err := f.store.Save(context.Background(), "broken.png", []byte("not an image"))
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), "s1", path)
	require.Error(t, err)
	require.Equal(t, int32(0), m.calls.Load())

	_, err = svc.Analyze(context.Background(), "s1", "uploads/missing.png")
	require.Error(t, err)
}

func TestWithDeadline_PassesThroughResult(t *testing.T) {
	v, err := withDeadline(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)

	sentinel := errors.New("boom")
	_, err = withDeadline(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.False(t, errors.Is(err, entity.ErrTimeout))
}
