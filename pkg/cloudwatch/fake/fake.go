// Package fake provides an in-memory CloudWatch Logs account for tests and the mock server.
package fake

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
)

// DefaultPageSize is the number of items returned per page when Logs.PageSize is zero.
const DefaultPageSize = 50

// Event is a stored log event, Timestamp in epoch milliseconds.
type Event struct {
	Timestamp int64
	Message   string
}

// Stream is a stored log stream.
type Stream struct {
	Name   string
	Events []Event
}

// Group is a stored log group.
type Group struct {
	Name    string
	Streams []Stream
}

// Logs is an in-memory CloudWatch Logs region. The zero value is an empty region.
type Logs struct {
	mu sync.Mutex

	Groups   []Group
	PageSize int

	// GroupsErr fails every DescribeLogGroups call
	GroupsErr error
	// StreamErrs fails DescribeLogStreams of a group
	StreamErrs map[string]error
	// EventErrs are returned by consecutive GetLogEvents calls of "group/stream" before it succeeds
	EventErrs map[string][]error
	// IgnoreWindow returns events outside the requested time range
	IgnoreWindow bool
	// RepeatToken returns the first page over and over with the same forward token
	RepeatToken bool

	calls map[string]int
}

// APIError builds an API error with the given code.
func APIError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code, Fault: smithy.FaultClient}
}

// AccessDenied is the error of a missing IAM permission.
func AccessDenied() error {
	return APIError("AccessDeniedException")
}

// Throttled is the error of an exceeded request quota.
func Throttled() error {
	return APIError("ThrottlingException")
}

// Calls returns how often op was called.
func (l *Logs) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

func (l *Logs) record(op string) {
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	l.calls[op]++
}

func (l *Logs) pageSize(limit *int32) int {
	size := l.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if limit != nil && int(*limit) > 0 && int(*limit) < size {
		size = int(*limit)
	}
	return size
}

func (l *Logs) group(name string) (*Group, bool) {
	for i := range l.Groups {
		if l.Groups[i].Name == name {
			return &l.Groups[i], true
		}
	}
	return nil, false
}

func (l *Logs) DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("DescribeLogGroups")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.GroupsErr != nil {
		return nil, l.GroupsErr
	}

	prefix := aws.ToString(params.LogGroupNamePrefix)
	var names []string
	for _, g := range l.Groups {
		if strings.HasPrefix(g.Name, prefix) {
			names = append(names, g.Name)
		}
	}

	from, err := offset(params.NextToken)
	if err != nil {
		return nil, err
	}
	page, next := paginate(len(names), from, l.pageSize(params.Limit))

	out := &cloudwatchlogs.DescribeLogGroupsOutput{NextToken: next}
	for _, name := range names[page[0]:page[1]] {
		out.LogGroups = append(out.LogGroups, cwtypes.LogGroup{LogGroupName: aws.String(name)})
	}
	return out, nil
}

func (l *Logs) DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("DescribeLogStreams")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := aws.ToString(params.LogGroupName)
	if err := l.StreamErrs[name]; err != nil {
		return nil, err
	}
	g, ok := l.group(name)
	if !ok {
		return nil, APIError("ResourceNotFoundException")
	}

	from, err := offset(params.NextToken)
	if err != nil {
		return nil, err
	}
	page, next := paginate(len(g.Streams), from, l.pageSize(params.Limit))

	out := &cloudwatchlogs.DescribeLogStreamsOutput{NextToken: next}
	for _, s := range g.Streams[page[0]:page[1]] {
		out.LogStreams = append(out.LogStreams, cwtypes.LogStream{LogStreamName: aws.String(s.Name)})
	}
	return out, nil
}

// GetLogEvents returns events with StartTime <= timestamp < EndTime in pages.
// As the real API does, the forward token is echoed back once the end of the stream is reached.
func (l *Logs) GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("GetLogEvents")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := aws.ToString(params.LogGroupName) + "/" + aws.ToString(params.LogStreamName)
	if errs := l.EventErrs[key]; len(errs) > 0 {
		l.EventErrs[key] = errs[1:]
		return nil, errs[0]
	}

	g, ok := l.group(aws.ToString(params.LogGroupName))
	if !ok {
		return nil, APIError("ResourceNotFoundException")
	}
	var stream *Stream
	for i := range g.Streams {
		if g.Streams[i].Name == aws.ToString(params.LogStreamName) {
			stream = &g.Streams[i]
		}
	}
	if stream == nil {
		return nil, APIError("ResourceNotFoundException")
	}

	events := make([]Event, 0, len(stream.Events))
	for _, e := range stream.Events {
		if !l.IgnoreWindow {
			if params.StartTime != nil && e.Timestamp < *params.StartTime {
				continue
			}
			if params.EndTime != nil && e.Timestamp >= *params.EndTime {
				continue
			}
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })

	from, err := offset(params.NextToken)
	if err != nil {
		return nil, err
	}
	if l.RepeatToken {
		from = 0
	}
	page, _ := paginate(len(events), from, l.pageSize(params.Limit))

	token := aws.String(fmt.Sprintf("f/%d", page[1]))
	if l.RepeatToken {
		token = aws.String("f/repeat")
	}
	out := &cloudwatchlogs.GetLogEventsOutput{
		NextForwardToken:  token,
		NextBackwardToken: aws.String(fmt.Sprintf("b/%d", page[0])),
	}
	for _, e := range events[page[0]:page[1]] {
		out.Events = append(out.Events, cwtypes.OutputLogEvent{
			Timestamp:     aws.Int64(e.Timestamp),
			IngestionTime: aws.Int64(e.Timestamp),
			Message:       aws.String(e.Message),
		})
	}
	return out, nil
}

func offset(token *string) (int, error) {
	t := aws.ToString(token)
	if t == "" || t == "f/repeat" {
		return 0, nil
	}
	t = strings.TrimPrefix(strings.TrimPrefix(t, "f/"), "b/")
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 {
		return 0, APIError("InvalidParameterException")
	}
	return n, nil
}

// paginate returns the [start, end) bounds of the page and the next token, nil on the last page.
func paginate(total, from, size int) ([2]int, *string) {
	if from > total {
		from = total
	}
	end := from + size
	if end >= total {
		return [2]int{from, total}, nil
	}
	return [2]int{from, end}, aws.String(strconv.Itoa(end))
}
