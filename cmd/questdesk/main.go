package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
)

var (
	app    = kingpin.New("questdesk", "Command line client for the questdesk coordination API")
	server = app.Flag("server", "Base URL of the questdesk server").Default("http://localhost:8001").Envar("QUESTDESK_SERVER").String()
	apiKey = app.Flag("api-key", "API key for authenticated servers").Envar("QUESTDESK_API_KEY").String()

	// Question commands
	questionsCmd = app.Command("questions", "Question tracking commands")

	questionsListCmd      = questionsCmd.Command("list", "List questions")
	questionsListCategory = questionsListCmd.Flag("category", "Filter by category").String()
	questionsListStatus   = questionsListCmd.Flag("status", "Filter by status").String()
	questionsListAgent    = questionsListCmd.Flag("agent", "Filter by working agent").String()

	questionsClaimCmd   = questionsCmd.Command("claim", "Claim a question for an agent")
	questionsClaimID    = questionsClaimCmd.Arg("id", "Question ID").Required().String()
	questionsClaimAgent = questionsClaimCmd.Arg("agent", "Agent ID").Required().String()

	questionsCompleteCmd   = questionsCmd.Command("complete", "Complete a question with a response file")
	questionsCompleteID    = questionsCompleteCmd.Arg("id", "Question ID").Required().String()
	questionsCompleteAgent = questionsCompleteCmd.Arg("agent", "Agent ID").Required().String()
	questionsCompleteFile  = questionsCompleteCmd.Arg("filepath", "Response file path").Required().String()
	questionsCompleteNotes = questionsCompleteCmd.Flag("notes", "Completion notes").String()

	// Task commands
	tasksCmd = app.Command("tasks", "Project task commands")

	tasksListCmd      = tasksCmd.Command("list", "List tasks")
	tasksListStatus   = tasksListCmd.Flag("status", "Filter by status").String()
	tasksListPriority = tasksListCmd.Flag("priority", "Filter by priority").String()
	tasksListAgent    = tasksListCmd.Flag("agent", "Filter by assigned agent").String()

	tasksClaimCmd = tasksCmd.Command("claim", "Claim the next available task")

	// Epic commands
	epicsCmd = app.Command("epics", "Epic commands")

	epicsPopulateCmd   = epicsCmd.Command("populate", "Populate epics and tasks from the catalog")
	epicsPopulateReset = epicsPopulateCmd.Flag("reset", "Restore every row to the seed baseline").Bool()

	epicsListCmd = epicsCmd.Command("list", "List epics")

	// Agent commands
	agentsCmd = app.Command("agents", "List agent profiles")

	checkoutCmd   = app.Command("checkout", "Checkout the next task for an agent")
	checkoutAgent = checkoutCmd.Arg("agent", "Agent ID").Required().String()

	submitCmd    = app.Command("submit", "Submit completed work for an agent's active task")
	submitAgent  = submitCmd.Arg("agent", "Agent ID").Required().String()
	submitBranch = submitCmd.Arg("branch", "Branch name").Required().String()
	submitTitle  = submitCmd.Flag("title", "Pull request title").String()
	submitBody   = submitCmd.Flag("body", "Pull request body").String()

	statusCmd = app.Command("status", "Show the overall tracker status")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &client{
		base:   *server,
		apiKey: *apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}

	var err error
	switch command {
	case questionsListCmd.FullCommand():
		query := url.Values{}
		setIfPresent(query, "category", *questionsListCategory)
		setIfPresent(query, "status", *questionsListStatus)
		setIfPresent(query, "agent", *questionsListAgent)
		err = c.do(ctx, http.MethodGet, "/questions", query, nil)
	case questionsClaimCmd.FullCommand():
		err = c.do(ctx, http.MethodPost, "/questions/"+*questionsClaimID+"/claim", nil,
			map[string]string{"agent_id": *questionsClaimAgent})
	case questionsCompleteCmd.FullCommand():
		err = c.do(ctx, http.MethodPost, "/questions/"+*questionsCompleteID+"/complete", nil,
			map[string]string{
				"agent_id": *questionsCompleteAgent,
				"filepath": *questionsCompleteFile,
				"notes":    *questionsCompleteNotes,
			})
	case tasksListCmd.FullCommand():
		query := url.Values{}
		setIfPresent(query, "status", *tasksListStatus)
		setIfPresent(query, "priority", *tasksListPriority)
		setIfPresent(query, "agent", *tasksListAgent)
		err = c.do(ctx, http.MethodGet, "/tasks", query, nil)
	case tasksClaimCmd.FullCommand():
		err = c.do(ctx, http.MethodPost, "/tasks/claim", nil, map[string]string{})
	case epicsPopulateCmd.FullCommand():
		query := url.Values{}
		if *epicsPopulateReset {
			query.Set("reset", "true")
		}
		err = c.do(ctx, http.MethodPost, "/epics/populate", query, map[string]string{})
	case epicsListCmd.FullCommand():
		err = c.do(ctx, http.MethodGet, "/epics", nil, nil)
	case agentsCmd.FullCommand():
		err = c.do(ctx, http.MethodGet, "/agents", nil, nil)
	case checkoutCmd.FullCommand():
		err = c.do(ctx, http.MethodPost, "/agents/"+*checkoutAgent+"/checkout", nil, map[string]string{})
	case submitCmd.FullCommand():
		err = c.do(ctx, http.MethodPut, "/agents/"+*submitAgent+"/submit", nil,
			map[string]string{
				"branch_name": *submitBranch,
				"pr_title":    *submitTitle,
				"pr_body":     *submitBody,
			})
	case statusCmd.FullCommand():
		err = c.do(ctx, http.MethodGet, "/status", nil, nil)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setIfPresent(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

type client struct {
	base   string
	apiKey string
	http   *http.Client
}

// do performs one request and pretty-prints the JSON response. Non-2xx
// responses are reported with the server's code and message.
func (c *client) do(ctx context.Context, method, path string, query url.Values, body any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	out := &bytes.Buffer{}
	if err := json.Indent(out, payload, "", "  "); err != nil {
		fmt.Println(string(payload))
		return nil
	}
	fmt.Println(out.String())
	return nil
}
