// teamchat терминальный клиент командного чата
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/codeforchange/hackportal/internal/chat"
	"github.com/codeforchange/hackportal/internal/logger"
	"github.com/codeforchange/hackportal/internal/models"
	ws "github.com/codeforchange/hackportal/internal/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type options struct {
	server   string
	email    string
	password string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "teamchat",
		Short:        "Terminal client for the team chat",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.email == "" || opts.password == "" {
				return errors.New("email and password are required (--email/--password or TEAMCHAT_EMAIL/TEAMCHAT_PASSWORD)")
			}

			log, err := logger.New("development")
			if err != nil {
				return err
			}
			defer log.Sync()

			c := &client{base: strings.TrimRight(opts.server, "/"), http: &http.Client{Timeout: 10 * time.Second}, log: log}
			if err := c.run(cmd.Context(), opts.email, opts.password); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("teamchat stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "portal base URL")
	flags.StringVar(&opts.email, "email", os.Getenv("TEAMCHAT_EMAIL"), "account email")
	flags.StringVar(&opts.password, "password", os.Getenv("TEAMCHAT_PASSWORD"), "account password")

	return cmd
}

type client struct {
	base   string
	http   *http.Client
	log    *zap.Logger
	token  string
	userID uuid.UUID
	teamID uuid.UUID
	names  map[uuid.UUID]string
	feed   *chat.Log

	// gorilla допускает только одного писателя
	wmu sync.Mutex
}

func (c *client) run(ctx context.Context, email, password string) error {
	if err := c.signIn(ctx, email, password); err != nil {
		return err
	}
	if err := c.loadTeam(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.base)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws/teams/" + c.teamID.String() + "/chat"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect chat: %w", err)
	}
	defer conn.Close()

	c.feed = chat.NewLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// чтение stdin не прерывается контекстом, поэтому живет вне группы
	go func() {
		if err := c.writeLoop(conn); err != nil {
			c.log.Warn("input closed", zap.Error(err))
		}
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := c.readLoop(conn)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})
	return g.Wait()
}

func (c *client) signIn(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	c.token = resp.Token
	c.userID = resp.User.ID
	return nil
}

func (c *client) loadTeam(ctx context.Context) error {
	var team struct {
		ID      uuid.UUID           `json:"id"`
		Name    string              `json:"name"`
		Members []models.TeamMember `json:"members"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/dashboard", nil, &team); err != nil {
		return fmt.Errorf("load team: %w", err)
	}

	c.teamID = team.ID
	c.names = make(map[uuid.UUID]string, len(team.Members))
	for _, m := range team.Members {
		c.names[m.UserID] = m.Name
	}
	fmt.Printf("connected to %s (%d members)\n", team.Name, len(team.Members))
	return nil
}

func (c *client) readLoop(conn *websocket.Conn) error {
	for {
		var msg ws.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case ws.TypeHistory:
			var history []models.ChatMessage
			if err := json.Unmarshal(msg.Data, &history); err != nil {
				c.log.Warn("bad history frame", zap.Error(err))
				continue
			}
			c.feed.Merge(history)
			c.render()

		case ws.TypeMessage, ws.TypeMessageAck:
			var payload ws.ChatPayload
			var row models.ChatMessage
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			if err := json.Unmarshal(payload.Message, &row); err != nil {
				continue
			}
			if c.feed.Apply(row, payload.ClientID) {
				c.print(chat.Entry{ChatMessage: row})
			}

		case ws.TypeError:
			var payload ws.ErrorPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				continue
			}
			if payload.ClientID != "" {
				c.feed.Rollback(payload.ClientID)
			}
			fmt.Printf("! %s\n", payload.Error)

		case ws.TypePing:
			_ = c.write(conn, ws.Message{Type: ws.TypePong, Timestamp: time.Now()})
		}
	}
}

// writeLoop отправляет строки stdin с оптимистичным показом
func (c *client) writeLoop(conn *websocket.Conn) error {
	lines := bufio.NewScanner(os.Stdin)
	for lines.Scan() {
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}

		clientID := uuid.NewString()
		c.print(c.feed.AddPending(clientID, c.teamID, c.userID, text))

		data, err := json.Marshal(map[string]string{"content": text, "client_id": clientID})
		if err != nil {
			return err
		}
		if err := c.write(conn, ws.Message{Type: ws.TypeMessage, Data: data, Timestamp: time.Now()}); err != nil {
			c.feed.Rollback(clientID)
			return fmt.Errorf("send: %w", err)
		}
	}
	return lines.Err()
}

func (c *client) write(conn *websocket.Conn, msg ws.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return conn.WriteJSON(msg)
}

func (c *client) render() {
	for _, e := range c.feed.Entries() {
		c.print(e)
	}
}

func (c *client) print(e chat.Entry) {
	name := c.names[e.UserID]
	if name == "" {
		name = e.UserID.String()[:8]
	}
	suffix := ""
	if e.Pending {
		suffix = " (sending)"
	}
	fmt.Printf("[%s] %s: %s%s\n", e.CreatedAt.Local().Format("15:04"), name, e.Message, suffix)
}

func (c *client) call(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
