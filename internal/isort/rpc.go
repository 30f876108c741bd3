package isort

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// RunRequest is the payload sent to a companion runner process.
type RunRequest struct {
	Workspace   string            `json:"workspace"`
	Interpreter []string          `json:"interpreter"`
	Module      string            `json:"module"`
	Argv        []string          `json:"argv"`
	UseStdin    bool              `json:"useStdin"`
	Cwd         string            `json:"cwd"`
	Source      string            `json:"source,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
}

// RunResponse mirrors the companion's run result. Exception is a formatted
// traceback when the remote invocation raised.
type RunResponse struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Exception string `json:"exception,omitempty"`
}

// RPCPool keeps one companion runner process per workspace and interpreter,
// so repeated runs under a configured interpreter avoid respawning Python.
type RPCPool struct {
	mu    sync.Mutex
	conns map[string]*companion
}

type companion struct {
	cmd  *exec.Cmd
	conn *jsonrpc2.Conn
}

func NewRPCPool() *RPCPool {
	return &RPCPool{conns: map[string]*companion{}}
}

// Run executes a request on the companion for its workspace and
// interpreter, starting one if needed. A dead channel is dropped so the
// next call respawns it.
func (p *RPCPool) Run(req RunRequest) (*RunResponse, error) {
	key := poolKey(req.Workspace, req.Interpreter)
	c, err := p.acquire(key, req.Interpreter)
	if err != nil {
		return nil, fmt.Errorf("start %s runner: %w", Display, err)
	}

	var resp RunResponse
	if err := c.conn.Call(context.Background(), "run", req, &resp); err != nil {
		p.drop(key)
		return nil, fmt.Errorf("run over JSON-RPC: %w", err)
	}
	return &resp, nil
}

// Shutdown terminates every companion process.
func (p *RPCPool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, c := range p.conns {
		c.close()
		delete(p.conns, key)
	}
}

func (p *RPCPool) acquire(key string, interpreter []string) (*companion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[key]; ok {
		return c, nil
	}

	c, err := startCompanion(interpreter)
	if err != nil {
		return nil, err
	}
	p.conns[key] = c
	return c, nil
}

func (p *RPCPool) drop(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[key]; ok {
		c.close()
		delete(p.conns, key)
	}
}

func startCompanion(interpreter []string) (*companion, error) {
	if len(interpreter) == 0 {
		return nil, errors.New("no interpreter configured")
	}
	script := runnerScriptPath()
	if script == "" {
		return nil, errors.New("companion runner script not found next to the server binary")
	}

	args := append(slices.Clone(interpreter[1:]), script)
	cmd := exec.Command(interpreter[0], args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	log.Infof("started %s runner: %s (pid %d)", Display, strings.Join(interpreter, " "), cmd.Process.Pid)

	stream := jsonrpc2.NewBufferedStream(pipePair{r: stdout, w: stdin}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream,
		jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
			// The companion only answers; it never issues requests.
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound}
		}))

	return &companion{cmd: cmd, conn: conn}, nil
}

func (c *companion) close() {
	c.conn.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
}

func poolKey(workspace string, interpreter []string) string {
	return workspace + "\x00" + strings.Join(interpreter, "\x00")
}

// pipePair joins a subprocess's stdout and stdin into one read/write stream.
type pipePair struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (p pipePair) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipePair) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p pipePair) Close() error {
	rerr := p.r.Close()
	werr := p.w.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
