package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	supa "github.com/nedpals/supabase-go"
)

const (
	supabaseUploadTimeout = time.Second * 10
)

// Client provides an interface onto the Supabase platform.
// It hides the underlying open source supabase library and adds reconnection and timeout logic.
type Client struct {
	url     string
	anonKey string
	userKey string
	schema  string

	jwtSecret     []byte // when set, user keys are minted with this secret rather than given
	userRole      string
	userKeyTTL    time.Duration
	userKeyExpiry time.Time

	subClient       *supa.Client // the raw client of the underlying supabase library we are using
	shouldReconnect bool         // when true, the subClient is 'dirty' and will be re-created next time a read or write call is made
	logger          *slog.Logger
}

func New(url, anonKey, userKey, schema string) (*Client, error) {
	if url == "" {
		return nil, errors.New("supabase url must be set")
	}
	if anonKey == "" {
		return nil, errors.New("supabase anon key must be set")
	}

	client := &Client{
		url:             url,
		anonKey:         anonKey,
		userKey:         userKey,
		schema:          schema,
		shouldReconnect: true, // shouldReconnect is marked as true from instantiation so the connection will be made lazily on the first request to read or write
		logger:          slog.Default().With("component", "supabase", "host", url),
	}

	return client, nil
}

// MintUserKeys makes the client sign its own user JWTs with the project's JWT secret, replacing any given user key.
// A new key is minted on each reconnect and shortly before the previous one expires.
func (c *Client) MintUserKeys(secret []byte, role string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("user key ttl must be positive, got %s", ttl)
	}
	if _, err := MintUserKey(secret, role, time.Now(), ttl); err != nil {
		return err
	}
	c.jwtSecret = secret
	c.userRole = role
	c.userKeyTTL = ttl
	c.setShouldReconnect()
	return nil
}

// UploadReadings takes the given stored plant readings or curtailment events, and attempts to upload them to the relevant
// supabase table.
func (c *Client) UploadReadings(readings interface{}) error {

	// Convert the stored readings (e.g. repository.StoredPlantReading) into the supabase types (e.g. supabasePlantReading)
	supabaseReadings, supabaseTableName, err := convertReadingsForSupabase(readings)
	if err != nil {
		return err
	}

	err = c.reconnectIfNeccesary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	// The supabase client library doesn't have good timeout support, so here we wrap the call in a timeout
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.subClient.DB.From(supabaseTableName).Insert(supabaseReadings).Execute(nil)
	}()

	select {
	case <-time.After(supabaseUploadTimeout):
		c.setShouldReconnect()
		return errors.New("timed out")
	case err := <-errCh:
		if err != nil {
			c.setShouldReconnect()
		}
		return err
	}
}

// createSubClient creates the open-source supabase library client with sensible defaults and connects to the host.
func (c *Client) createSubClient() error {

	if c.jwtSecret != nil {
		now := time.Now()
		userKey, err := MintUserKey(c.jwtSecret, c.userRole, now, c.userKeyTTL)
		if err != nil {
			return fmt.Errorf("mint user key: %w", err)
		}
		c.userKey = userKey
		c.userKeyExpiry = now.Add(c.userKeyTTL)
	}

	subClient := supa.CreateClient(c.url, c.anonKey)

	// The supabase client library doesn't have a fully featured interface, here we specify options directly by
	// adding headers to the postgrest requests.
	// Use the appropriate schema:
	subClient.DB.AddHeader("Accept-Profile", c.schema)
	subClient.DB.AddHeader("Content-Profile", c.schema)

	// Use a user JWT:
	if c.userKey != "" {
		subClient.DB.AddHeader("Authorization", fmt.Sprintf("Bearer %s", c.userKey))
	}

	c.subClient = subClient

	return nil
}

// setShouldReconnect is called when there has been an error with the supabase connection that should trigger a re-connect.
func (c *Client) setShouldReconnect() {
	c.shouldReconnect = true
}

// reconnectIfNeccesary will close the old connection and reconnect if there have been problems with the connection.
func (c *Client) reconnectIfNeccesary() error {
	if c.jwtSecret != nil && time.Until(c.userKeyExpiry) < c.userKeyTTL/10 {
		c.setShouldReconnect()
	}
	if !c.shouldReconnect {
		return nil
	}

	err := c.createSubClient()
	if err != nil {
		return err
	}

	c.shouldReconnect = false

	c.logger.Info("Created supabase client")

	return nil
}
