package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct {
	Value   string
	invalid bool
}

func (c testCommand) Validate() error {
	if c.invalid {
		return errors.New("bad command")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, keysAndValues ...interface{}) {
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, keysAndValues ...interface{}) {
	l.errors = append(l.errors, msg)
}

func TestCommandBus_SendDispatchesToHandler(t *testing.T) {
	// Arrange
	cmdBus := NewCommandBus()
	handler := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return "handled:" + cmd.(testCommand).Value, nil
	})
	require.NoError(t, cmdBus.Register(testCommand{}, handler))

	// Act
	result, err := cmdBus.Send(context.Background(), testCommand{Value: "x"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "handled:x", result)
}

func TestCommandBus_RegisterRejectsDuplicates(t *testing.T) {
	cmdBus := NewCommandBus()
	handler := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return nil, nil
	})

	require.NoError(t, cmdBus.Register(testCommand{}, handler))
	assert.Error(t, cmdBus.Register(testCommand{}, handler))
}

func TestCommandBus_SendWithoutHandler(t *testing.T) {
	cmdBus := NewCommandBus()

	_, err := cmdBus.Send(context.Background(), otherCommand{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestCommandBus_SendValidatesFirst(t *testing.T) {
	cmdBus := NewCommandBus()
	called := false
	handler := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, cmdBus.Register(testCommand{}, handler))

	_, err := cmdBus.Send(context.Background(), testCommand{invalid: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.False(t, called)
}

func TestCommandBus_SendWrapsHandlerError(t *testing.T) {
	cmdBus := NewCommandBus()
	handler := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, cmdBus.Register(testCommand{}, handler))

	_, err := cmdBus.Send(context.Background(), testCommand{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLoggingMiddleware_LogsOutcome(t *testing.T) {
	logger := &recordingLogger{}
	succeed := LoggingMiddleware(logger)(CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return "ok", nil
	}))

	result, err := succeed.Handle(context.Background(), testCommand{})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Contains(t, logger.infos, "Command succeeded")

	fail := LoggingMiddleware(logger)(CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		return nil, errors.New("boom")
	}))

	_, err = fail.Handle(context.Background(), testCommand{})
	require.Error(t, err)
	assert.Contains(t, logger.errors, "Command failed")
}

func TestPipeline_AppliesMiddlewareInOrder(t *testing.T) {
	// Arrange: each middleware appends on the way in, so declaration
	// order is execution order.
	var order []string
	tag := func(name string) Middleware {
		return func(next CommandHandler) CommandHandler {
			return CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, cmd)
			})
		}
	}
	pipeline := NewPipeline(tag("outer"), tag("inner"))
	handler := pipeline.Execute(CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		order = append(order, "handler")
		return nil, nil
	}))

	// Act
	_, err := handler.Handle(context.Background(), testCommand{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestValidationMiddleware_BlocksInvalidCommands(t *testing.T) {
	called := false
	handler := ValidationMiddleware()(CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		called = true
		return nil, nil
	}))

	_, err := handler.Handle(context.Background(), testCommand{invalid: true})

	require.Error(t, err)
	assert.False(t, called)
}
