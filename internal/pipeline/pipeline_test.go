package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/enrich/topcv"
	"applicant-engine/internal/mailbox"
	"applicant-engine/internal/parser"
)

type fakeSource struct {
	msgs      []domain.RawMessage
	raw       map[string][]byte
	unreadErr error

	mu     sync.Mutex
	marked []string
	closed bool
}

func (f *fakeSource) Unread(context.Context) ([]domain.RawMessage, error) {
	return f.msgs, f.unreadErr
}

func (f *fakeSource) Raw(_ context.Context, id string) ([]byte, error) {
	b, ok := f.raw[id]
	if !ok {
		return nil, errors.New("no such message")
	}
	return b, nil
}

func (f *fakeSource) MarkRead(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, ids...)
	return nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func (f *fakeSource) opener() mailbox.Opener {
	return func(context.Context) (mailbox.Source, error) { return f, nil }
}

type captureSink struct {
	err  error
	recs []domain.ApplicantRecord
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Write(_ context.Context, recs []domain.ApplicantRecord) error {
	if c.err != nil {
		return c.err
	}
	c.recs = append(c.recs, recs...)
	return nil
}

type fakeEnricher map[string]topcv.Applicant

func (f fakeEnricher) Lookup(_ context.Context, raw []byte) (topcv.Applicant, error) {
	a, ok := f[string(raw)]
	if !ok {
		return topcv.Applicant{}, topcv.ErrNoTrackingURL
	}
	return a, nil
}

func batch() *fakeSource {
	return &fakeSource{
		msgs: []domain.RawMessage{
			{MailID: "aha", FromMail: "iappvnco@gmail.com", Body: "Ứng viên (Nguyễn Văn A) ứng tuyển vị trí Data Analyst tại Hà Nội, SĐT 0912345678"},
			{MailID: "cb", FromMail: "resumes@mail.careerbuilder.vn", Subject: "Nguyễn Thị B vừa ứng tuyển", Body: "Marketing Executive"},
			{MailID: "personal-nopos", FromMail: "friend@example.com", Body: "Hello, 0912345678"},
			{MailID: "nosender", Body: "Data Analyst"},
			{MailID: "topcv-ok", FromMail: "info@tuyendungtopcv.com", Body: "Business Analyst HCM"},
			{MailID: "topcv-broken", FromMail: "info@tuyendungtopcv.com", Body: "Business Analyst HCM"},
			{MailID: "topcv-missing-raw", FromMail: "info@tuyendungtopcv.com", Body: "CEO"},
		},
		raw: map[string][]byte{
			"topcv-ok":     []byte("ok"),
			"topcv-broken": []byte("broken"),
		},
	}
}

func deps(src *fakeSource, sink *captureSink) Deps {
	return Deps{
		Open: src.opener(),
		Parser: parser.Options{Enricher: fakeEnricher{
			"ok": {Name: "lê văn c", Phone: "84911111111", Email: "c@example.com"},
		}},
		Sink:     sink,
		MarkRead: true,
		Workers:  3,
	}
}

func TestRunOnce_Batch(t *testing.T) {
	src := batch()
	sink := &captureSink{}

	res, err := RunOnce(context.Background(), deps(src, sink))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Fetched)
	assert.Equal(t, 4, res.Parsed)
	assert.Equal(t, 3, res.Exported)
	assert.Equal(t, 2, res.Discarded, "topcv structural failure plus one record without position")
	assert.Equal(t, 2, res.Failed, "missing sender plus raw fetch failure")

	ids := make([]string, 0, len(sink.recs))
	for _, r := range sink.recs {
		ids = append(ids, r.MailID)
		assert.NotEmpty(t, r.Position)
	}
	assert.Equal(t, []string{"aha", "cb", "topcv-ok"}, ids, "input order is kept")
	assert.Equal(t, "Lê Văn C", sink.recs[2].Name)

	assert.ElementsMatch(t, []string{"aha", "cb", "personal-nopos", "topcv-ok", "topcv-broken"}, src.marked)
	assert.True(t, src.closed)
}

func TestRunOnce_SinkFailureKeepsMailUnread(t *testing.T) {
	src := batch()
	sink := &captureSink{err: errors.New("disk full")}

	_, err := RunOnce(context.Background(), deps(src, sink))
	require.Error(t, err)
	assert.Empty(t, src.marked)
}

func TestRunOnce_MarkReadDisabled(t *testing.T) {
	src := batch()
	d := deps(src, &captureSink{})
	d.MarkRead = false

	_, err := RunOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Empty(t, src.marked)
}

func TestRunOnce_SkipsSeen(t *testing.T) {
	src := batch()
	sink := &captureSink{}
	d := deps(src, sink)
	d.Seen = func(_ context.Context, ids []string) (map[string]bool, error) {
		return map[string]bool{"aha": true, "cb": true}, nil
	}

	res, err := RunOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, res.Exported)
	assert.Subset(t, src.marked, []string{"aha", "cb"}, "already exported mail is marked read")
	assert.Contains(t, src.marked, "topcv-ok")
}

func TestRunOnce_AllSeenAreMarkedRead(t *testing.T) {
	src := batch()
	sink := &captureSink{}
	d := deps(src, sink)
	d.Seen = func(_ context.Context, ids []string) (map[string]bool, error) {
		all := make(map[string]bool, len(ids))
		for _, id := range ids {
			all[id] = true
		}
		return all, nil
	}

	res, err := RunOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Fetched)
	assert.Equal(t, 7, res.Skipped)
	assert.Zero(t, res.Exported)
	assert.Empty(t, sink.recs)

	want := make([]string, 0, len(src.msgs))
	for _, m := range src.msgs {
		want = append(want, m.MailID)
	}
	assert.ElementsMatch(t, want, src.marked)

	d.MarkRead = false
	src.marked = nil
	_, err = RunOnce(context.Background(), d)
	require.NoError(t, err)
	assert.Empty(t, src.marked)
}

func TestRunOnce_UnreadError(t *testing.T) {
	src := &fakeSource{unreadErr: errors.New("imap: bye")}
	_, err := RunOnce(context.Background(), deps(src, &captureSink{}))
	require.Error(t, err)
	assert.True(t, src.closed)
}

func TestRunOnce_Empty(t *testing.T) {
	src := &fakeSource{}
	sink := &captureSink{}
	res, err := RunOnce(context.Background(), deps(src, sink))
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	assert.Empty(t, sink.recs)
}

func TestRunOnce_Lock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	held := flock.New(path)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	d := deps(batch(), &captureSink{})
	d.LockPath = path

	_, err = RunOnce(context.Background(), d)
	assert.ErrorIs(t, err, ErrRunInProgress)

	require.NoError(t, held.Unlock())
	_, err = RunOnce(context.Background(), d)
	assert.NoError(t, err)
}

func TestRunner_StatusAndCallbacks(t *testing.T) {
	src := batch()
	d := deps(src, &captureSink{})

	var exported []string
	d.OnExported = func(r domain.ApplicantRecord) { exported = append(exported, r.MailID) }

	r := NewRunner(d)
	var finished *Result
	r.OnFinished = func(res Result, err error) {
		assert.NoError(t, err)
		finished = &res
	}

	require.NoError(t, r.Task(context.Background()))

	st := r.Status()
	assert.False(t, st.Running)
	assert.NotEmpty(t, st.LastOkAt)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.Last)
	assert.Equal(t, 3, st.Last.Exported)
	require.NotNil(t, finished)
	assert.Equal(t, []string{"aha", "cb", "topcv-ok"}, exported)
}

func TestRunner_RecordsError(t *testing.T) {
	r := NewRunner(Deps{})
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, r.Status().LastError)
}
