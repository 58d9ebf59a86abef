package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ASHISH26940/vidface-api/pkg/db"
	"github.com/ASHISH26940/vidface-api/pkg/db/queries"
	"github.com/ASHISH26940/vidface-api/pkg/storage"
	"github.com/ASHISH26940/vidface-api/pkg/voice"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers commands by program name; unknown programs fail.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    map[string]func(args []string) ([]byte, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fn: make(map[string]func([]string) ([]byte, error))}
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	fn := r.fn[name]
	r.mu.Unlock()
	if fn == nil {
		return nil, errors.New("exec: \"" + name + "\": executable file not found in $PATH")
	}
	return fn(args)
}

// withFFmpeg makes "ffmpeg" answer the version probe and handle renders with render.
func (r *fakeRunner) withFFmpeg(render func(args []string) error) *fakeRunner {
	r.fn["ffmpeg"] = func(args []string) ([]byte, error) {
		if len(args) == 1 && args[0] == "-version" {
			return []byte("ffmpeg version 6.0"), nil
		}
		if err := render(args); err != nil {
			return []byte("encoder error"), err
		}
		return nil, os.WriteFile(args[len(args)-1], []byte("mp4-data"), 0o644)
	}
	return r
}

func (r *fakeRunner) withFFprobe(output string) *fakeRunner {
	r.fn["ffprobe"] = func(args []string) ([]byte, error) {
		if len(args) == 1 && args[0] == "-version" {
			return nil, nil
		}
		return []byte(output), nil
	}
	return r
}

type fakeSpeaker struct {
	dir string
	err error
}

func (s fakeSpeaker) Synthesize(_ context.Context, req voice.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := filepath.Join(s.dir, "narration.wav")
	return path, os.WriteFile(path, []byte("RIFF-audio-"+req.Text), 0o644)
}

type panickingRenderer struct{}

func (panickingRenderer) Assemble(context.Context, string, string) (Artifact, error) {
	panic("renderer exploded")
}

type failingPlacer struct{}

func (failingPlacer) Place(string, uuid.UUID) (string, error) {
	return "", errors.New("disk full")
}

// flakyStore fails the reads and claims the pipeline makes before a job starts.
type flakyStore struct {
	*queries.Store
	loadErr  error
	claimErr error
}

func (s flakyStore) FindVideoByID(ctx context.Context, id uuid.UUID) (*db.Video, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Store.FindVideoByID(ctx, id)
}

func (s flakyStore) MarkVideoProcessing(ctx context.Context, id uuid.UUID, progress float64) error {
	if s.claimErr != nil {
		return s.claimErr
	}
	return s.Store.MarkVideoProcessing(ctx, id, progress)
}

type fixture struct {
	store    *queries.Store
	outDir   *storage.LocalStore
	workDir  string
	audioDir string
	video    *db.Video
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn))
	store := queries.NewStore(conn)

	user, err := store.CreateUser(ctx, &db.User{Email: "alice@example.com", Username: "alice", PasswordHash: "x", IsActive: true})
	require.NoError(t, err)
	video, err := store.CreateVideo(ctx, &db.Video{UserID: user.ID, Title: "Demo", Script: "This is a test script for video generation"})
	require.NoError(t, err)

	out, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "videos"))
	require.NoError(t, err)
	return &fixture{store: store, outDir: out, workDir: t.TempDir(), audioDir: t.TempDir(), video: video}
}

func (f *fixture) pipeline(runner CommandRunner) *Pipeline {
	return NewPipeline(
		f.store,
		fakeSpeaker{dir: f.audioDir},
		NewAssembler(runner, []string{"/missing/ffmpeg", "ffmpeg"}, f.workDir),
		NewInspector(runner, []string{"ffprobe"}),
		f.outDir,
	)
}

func (f *fixture) reload(t *testing.T) *db.Video {
	t.Helper()
	v, err := f.store.FindVideoByID(context.Background(), f.video.ID)
	require.NoError(t, err)
	require.NotNil(t, v)
	return v
}

const probeJSON = `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":320,"height":240}],"format":{"duration":"3.250000"}}`

func TestPipelineColorTrack(t *testing.T) {
	f := newFixture(t)
	runner := newFakeRunner().withFFmpeg(func([]string) error { return nil }).withFFprobe(probeJSON)

	require.NoError(t, f.pipeline(runner).Run(context.Background(), f.video.ID))

	got := f.reload(t)
	require.Equal(t, db.StatusCompleted, got.Status)
	require.Equal(t, 1.0, got.Progress)
	require.False(t, got.ErrorMessage.Valid)
	require.Equal(t, f.outDir.PathFor(f.video.ID, ".mp4"), got.OutputPath.String)
	require.Equal(t, string(ModeColorTrack), got.RenderMode.String)
	require.Equal(t, 3.25, got.Duration.Float64)
	require.Equal(t, "320x240", got.Resolution.String)
	require.Equal(t, int64(len("mp4-data")), got.FileSize.Int64)
	require.FileExists(t, got.OutputPath.String)
	require.NoFileExists(t, filepath.Join(f.workDir, f.video.ID.String()+".mp4"))

	var sawColor bool
	for _, call := range runner.calls {
		if call[0] == "ffmpeg" && strings.Contains(strings.Join(call, " "), "color=c=black:s=320x240") {
			sawColor = true
		}
	}
	require.True(t, sawColor)
}

func TestPipelineFallsBackToStillImage(t *testing.T) {
	f := newFixture(t)
	runner := newFakeRunner().withFFmpeg(func(args []string) error {
		for _, a := range args {
			if a == "lavfi" {
				return errors.New("exit status 1")
			}
		}
		return nil
	}).withFFprobe(probeJSON)

	require.NoError(t, f.pipeline(runner).Run(context.Background(), f.video.ID))

	got := f.reload(t)
	require.Equal(t, db.StatusCompleted, got.Status)
	require.Equal(t, string(ModeStillImage), got.RenderMode.String)
}

func TestPipelineWithoutFFmpegUsesAudioCopy(t *testing.T) {
	f := newFixture(t)
	runner := newFakeRunner()

	require.NoError(t, f.pipeline(runner).Run(context.Background(), f.video.ID))

	got := f.reload(t)
	require.Equal(t, db.StatusCompleted, got.Status)
	require.Equal(t, string(ModeAudioCopy), got.RenderMode.String)
	require.True(t, ModeAudioCopy.Degraded())
	require.Equal(t, NominalDuration, got.Duration.Float64)
	require.True(t, got.OutputPath.Valid)

	data, err := os.ReadFile(got.OutputPath.String)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "RIFF-audio-"))
	require.Equal(t, int64(len(data)), got.FileSize.Int64)
}

func TestPipelineSpeechFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())
	p.speech = fakeSpeaker{err: errors.New("speech generation failed: openai: API error: 500")}

	require.Error(t, p.Run(context.Background(), f.video.ID))

	got := f.reload(t)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Equal(t, "speech generation failed: openai: API error: 500", got.ErrorMessage.String)
	require.False(t, got.OutputPath.Valid)
	require.Less(t, got.Progress, 1.0)
}

func TestPipelinePanicStillReachesTerminalState(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())
	p.renderer = panickingRenderer{}

	err := p.Run(context.Background(), f.video.ID)
	require.ErrorContains(t, err, "renderer exploded")

	got := f.reload(t)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage.String, "renderer exploded")
}

func TestPipelineLoadFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())
	p.store = flakyStore{Store: f.store, loadErr: errors.New("connection reset by peer")}

	require.ErrorContains(t, p.Run(context.Background(), f.video.ID), "connection reset by peer")

	got := f.reload(t)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage.String, "connection reset by peer")
}

func TestPipelineClaimFailureFailsJob(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())
	p.store = flakyStore{Store: f.store, claimErr: errors.New("database is locked")}

	require.ErrorContains(t, p.Run(context.Background(), f.video.ID), "database is locked")

	got := f.reload(t)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage.String, "mark processing: database is locked")
}

func TestPipelineCancelledBeforeStartFailsJob(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, f.pipeline(newFakeRunner()).Run(ctx, f.video.ID), context.Canceled)

	got := f.reload(t)
	require.Equal(t, db.StatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage.String, "context canceled")
}

func TestPipelineRelocationFailureKeepsWorkingPath(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())
	p.artifacts = failingPlacer{}

	require.NoError(t, p.Run(context.Background(), f.video.ID))

	got := f.reload(t)
	require.Equal(t, db.StatusCompleted, got.Status)
	require.Equal(t, filepath.Join(f.workDir, f.video.ID.String()+".mp4"), got.OutputPath.String)
}

func TestPipelineRunsOnlyOnce(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(newFakeRunner())

	require.NoError(t, p.Run(context.Background(), f.video.ID))
	first := f.reload(t)

	require.NoError(t, p.Run(context.Background(), f.video.ID))
	second := f.reload(t)
	require.Equal(t, first.OutputPath, second.OutputPath)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestAssemblerPlaceholderWhenAudioMissing(t *testing.T) {
	a := NewAssembler(newFakeRunner(), nil, t.TempDir())

	art, err := a.Assemble(context.Background(), "/does/not/exist.wav", "vid")
	require.NoError(t, err)
	require.Equal(t, ModePlaceholder, art.Mode)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	require.Equal(t, placeholderBody, string(data))
}

func TestLocatePicksFirstWorkingCandidate(t *testing.T) {
	runner := newFakeRunner().withFFmpeg(func([]string) error { return nil })

	path, err := Locate(context.Background(), runner, []string{"/opt/ffmpeg", "ffmpeg"})
	require.NoError(t, err)
	require.Equal(t, "ffmpeg", path)

	_, err = Locate(context.Background(), runner, []string{"/opt/ffmpeg"})
	require.ErrorIs(t, err, ErrToolNotFound)
}
