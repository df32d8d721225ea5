package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

type recordingAsker struct {
	questions []string
	fail      error
}

func (a *recordingAsker) Query(_ context.Context, q string) (domain.Response, error) {
	a.questions = append(a.questions, q)
	if a.fail != nil {
		return domain.Response{}, a.fail
	}
	return domain.Response{Answer: "A:" + q}, nil
}

func TestRun_ExitVariantsIssueNoQuery(t *testing.T) {
	for _, token := range []string{"exit", "EXIT", "Exit", "  eXiT  "} {
		t.Run(token, func(t *testing.T) {
			asker := &recordingAsker{}
			out := &bytes.Buffer{}

			err := Run(context.Background(), strings.NewReader(token+"\nnever asked\n"), out, asker)

			require.NoError(t, err)
			assert.Empty(t, asker.questions)
			assert.Equal(t, Prompt, out.String())
		})
	}
}

func TestRun_OneQueryPerLine(t *testing.T) {
	asker := &recordingAsker{}
	out := &bytes.Buffer{}
	in := "What is RAG?\r\nexits are not exit\nexit\n"

	err := Run(context.Background(), strings.NewReader(in), out, asker)

	require.NoError(t, err)
	assert.Equal(t, []string{"What is RAG?", "exits are not exit"}, asker.questions)
	want := Prompt + "\nAI Answer: A:What is RAG?\n\n" +
		Prompt + "\nAI Answer: A:exits are not exit\n\n" +
		Prompt
	assert.Equal(t, want, out.String())
}

func TestRun_EOFTerminates(t *testing.T) {
	asker := &recordingAsker{}
	out := &bytes.Buffer{}

	err := Run(context.Background(), strings.NewReader("hello"), out, asker)

	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, asker.questions)
	assert.True(t, strings.HasSuffix(out.String(), Prompt+"\n"))
}

func TestRun_BlankLinesSkipped(t *testing.T) {
	asker := &recordingAsker{}

	err := Run(context.Background(), strings.NewReader("\n   \nexit\n"), &bytes.Buffer{}, asker)

	require.NoError(t, err)
	assert.Empty(t, asker.questions)
}

func TestRun_QueryErrorEndsLoop(t *testing.T) {
	boom := errors.New("ollama down")
	asker := &recordingAsker{fail: boom}

	err := Run(context.Background(), strings.NewReader("q1\nq2\n"), &bytes.Buffer{}, asker)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"q1"}, asker.questions)
}

func TestRun_CancelWhileWaitingForInput(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	asker := &recordingAsker{}
	out := &bytes.Buffer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, pr, out, asker) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run still blocked after cancellation")
	}
	assert.Empty(t, asker.questions)
	assert.Equal(t, Prompt+"\n", out.String())
}

func TestIsExit(t *testing.T) {
	assert.True(t, IsExit("Exit"))
	assert.False(t, IsExit("exit now"))
	assert.False(t, IsExit(""))
}
