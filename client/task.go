package client

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tacplusgo/tacacs-plus-go/wire"
)

const (
	argTaskID      = "task_id"
	argStartTime   = "start_time"
	argStopTime    = "stop_time"
	argElapsedTime = "elapsed_time"
)

// AccountingTask models a long-running accounting operation across its
// Start/Update/Stop exchanges, tracking the task id and start instant
// shared by every exchange in the task's lifecycle.
type AccountingTask struct {
	client    *Client
	id        string
	ctx       SessionContext
	startTime time.Time
}

// AccountBegin starts a new accounting task: it prepends mandatory
// task_id and start_time arguments to the caller's arguments and sends a
// StartRecord request. The returned task is used for subsequent Update
// and Stop calls.
func (c *Client) AccountBegin(ctx context.Context, sessCtx SessionContext, arguments wire.Arguments) (*AccountingTask, *AccountingResponse, error) {
	task := &AccountingTask{
		client:    c,
		id:        uuid.New().String(),
		ctx:       sessCtx,
		startTime: time.Now(),
	}

	startTime, err := unixTimestampArgument(argStartTime, time.Now())
	if err != nil {
		return nil, nil, err
	}
	taskIDArg, err := mandatoryArgument(argTaskID, task.id)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.sendAccounting(ctx, sessCtx, wire.AccountingFlagsStartRecord, prepend(taskIDArg, startTime, arguments))
	if err != nil {
		return nil, nil, err
	}
	return task, resp, nil
}

// Update sends a WatchdogUpdate accounting record for an in-progress
// task, prepending the task's id and elapsed time in seconds since Start.
func (t *AccountingTask) Update(ctx context.Context, arguments wire.Arguments) (*AccountingResponse, error) {
	elapsed, err := mandatoryArgument(argElapsedTime, formatSeconds(time.Since(t.startTime)))
	if err != nil {
		return nil, err
	}
	taskIDArg, err := mandatoryArgument(argTaskID, t.id)
	if err != nil {
		return nil, err
	}
	return t.client.sendAccounting(ctx, t.ctx, wire.AccountingFlagsWatchdogUpdate, prepend(taskIDArg, elapsed, arguments))
}

// Stop sends a StopRecord accounting record, prepending the task's id and
// stop time. The task is not invalidated: later Update or Stop calls on it
// still send records under the same task id.
func (t *AccountingTask) Stop(ctx context.Context, arguments wire.Arguments) (*AccountingResponse, error) {
	stopTime, err := unixTimestampArgument(argStopTime, time.Now())
	if err != nil {
		return nil, err
	}
	taskIDArg, err := mandatoryArgument(argTaskID, t.id)
	if err != nil {
		return nil, err
	}
	return t.client.sendAccounting(ctx, t.ctx, wire.AccountingFlagsStopRecord, prepend(taskIDArg, stopTime, arguments))
}

func mandatoryArgument(name, value string) (wire.Argument, error) {
	nameText, err := wire.NewFieldText(name)
	if err != nil {
		return wire.Argument{}, errInvalidArgument(err)
	}
	valueText, err := wire.NewFieldText(value)
	if err != nil {
		return wire.Argument{}, errInvalidArgument(err)
	}
	arg, err := wire.NewArgument(nameText, valueText, true)
	if err != nil {
		return wire.Argument{}, errInvalidArgument(err)
	}
	return arg, nil
}

// unixTimestampArgument renders now as a mandatory argument holding
// seconds since the Unix epoch, failing with a clock error if the clock
// reports a time before the epoch (spec §4.8).
func unixTimestampArgument(name string, now time.Time) (wire.Argument, error) {
	if now.Before(time.Unix(0, 0)) {
		return wire.Argument{}, errClock()
	}
	return mandatoryArgument(name, formatSeconds(now.Sub(time.Unix(0, 0))))
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10)
}

func prepend(a, b wire.Argument, rest wire.Arguments) wire.Arguments {
	out := make(wire.Arguments, 0, 2+len(rest))
	out = append(out, a, b)
	out = append(out, rest...)
	return out
}
