package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/router"
)

type scriptedRequester struct {
	errs  []error
	calls int
	sent  [][]byte
}

func (s *scriptedRequester) Request(_ context.Context, payload []byte, id byte, _ time.Duration) (frame.Message, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return frame.Message{}, err
	}
	return frame.Message{ID: id, Body: []byte("ok")}, nil
}

func (s *scriptedRequester) Send(payload []byte) error {
	s.sent = append(s.sent, payload)
	return nil
}

func timeoutErr(id byte) error { return &router.TimeoutError{ID: id, After: time.Millisecond} }

func TestSendRetriesOnTimeout(t *testing.T) {
	id := byte(0x06)
	r := &scriptedRequester{errs: []error{timeoutErr(id), timeoutErr(id)}}

	msg, err := send(context.Background(), r, request{payload: []byte{0x84, 0x00}, expect: &id, attempts: 3}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, 3, r.calls)
}

func TestSendGivesUpAfterAttempts(t *testing.T) {
	id := byte(0x06)
	r := &scriptedRequester{errs: []error{timeoutErr(id), timeoutErr(id)}}

	_, err := send(context.Background(), r, request{payload: []byte{0x84, 0x00}, expect: &id, attempts: 2}, zerolog.Nop())
	assert.ErrorIs(t, err, router.ErrTimeout)
	assert.ErrorContains(t, err, "after 2 attempts")
}

func TestSendStopsOnOtherErrors(t *testing.T) {
	id := byte(0x06)
	broken := errors.New("port gone")
	r := &scriptedRequester{errs: []error{broken}}

	_, err := send(context.Background(), r, request{payload: []byte{0x84, 0x00}, expect: &id, attempts: 3}, zerolog.Nop())
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, 1, r.calls)
}

func TestSendWithoutReply(t *testing.T) {
	r := &scriptedRequester{}
	_, err := send(context.Background(), r, request{payload: []byte{0x84, 0x00}}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x84, 0x00}}, r.sent)
	assert.Zero(t, r.calls)
}

func TestParsePayload(t *testing.T) {
	p, err := parsePayload(" 84 00 ")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x84, 0x00}, p)

	_, err = parsePayload("")
	assert.ErrorIs(t, err, frame.ErrEmptyPayload)
	_, err = parsePayload("zz")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("0x06")
	require.NoError(t, err)
	assert.Equal(t, byte(6), id)

	_, err = parseID("300")
	assert.Error(t, err)
}
