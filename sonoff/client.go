package sonoff

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/brutella/hc/log"
)

// Outcome tags what happened to a device request
type Outcome int

const (
	// TransportFailure: the device could not be reached
	TransportFailure Outcome = iota
	// PayloadUnusable: the device answered but the body is not JSON
	PayloadUnusable
	// Success: the body decoded
	Success
)

func (o Outcome) String() string {
	switch o {
	case TransportFailure:
		return "transport failure"
	case PayloadUnusable:
		return "payload unusable"
	case Success:
		return "success"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the tagged response of SendRequest
type Result struct {
	Outcome Outcome
	Value   interface{} // decoded body, only for Success
	Err     error       // cause, for TransportFailure and PayloadUnusable
}

// Lookup returns the string stored under key in a JSON object response
func (r Result) Lookup(key string) (string, bool) {
	if r.Outcome != Success {
		return "", false
	}
	obj, ok := r.Value.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}

// Requester is anything that can poll a Sonoff
type Requester interface {
	SendRequest(ctx context.Context, url string) Result
}

// Client talks to the Tasmota web API
type Client struct {
	HTTP *http.Client
}

// NewClient returns a client with no timeout: a hung device hangs the call
func NewClient() *Client {
	return &Client{HTTP: &http.Client{}}
}

// SendRequest issues a single GET and decodes the JSON body. It never returns an error, the outcome is in the Result.
func (c *Client) SendRequest(ctx context.Context, url string) Result {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return Result{Outcome: TransportFailure, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Debug.Printf("sonoff request failed: %s", err.Error())
		return Result{Outcome: TransportFailure, Err: err}
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return Result{Outcome: TransportFailure, Err: err}
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		log.Debug.Printf("sonoff sent unusable payload: %s", string(body))
		return Result{Outcome: PayloadUnusable, Err: err}
	}
	return Result{Outcome: Success, Value: v}
}
