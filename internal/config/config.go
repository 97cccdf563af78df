// Package config loads match and server settings from HCL files.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/marno1d/callmybluff/internal/bot"
)

// Config represents a complete simulation or server configuration
type Config struct {
	Simulation *SimulationSettings `hcl:"simulation,block"`
	Server     *ServerSettings     `hcl:"server,block"`
	Seats      []SeatConfig        `hcl:"seat,block"`
}

// SimulationSettings controls batches of matches
type SimulationSettings struct {
	Matches         int    `hcl:"matches,optional"`
	Seed            int64  `hcl:"seed,optional"`
	Workers         int    `hcl:"workers,optional"`
	StartingDice    int    `hcl:"starting_dice,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
	MatchTimeout    string `hcl:"match_timeout,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	OddsTable       string `hcl:"odds_table,optional"`
}

// ServerSettings configures the websocket server for remote bots
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	Port            int    `hcl:"port,optional"`
	DecisionTimeout string `hcl:"decision_timeout,optional"`
	Matches         int    `hcl:"matches,optional"`
}

// SeatConfig seats one player. Remote seats are filled by bots connecting
// to the server; the others use the named built-in bot.
type SeatConfig struct {
	Name   string `hcl:"name,label"`
	Bot    string `hcl:"bot,optional"`
	Remote bool   `hcl:"remote,optional"`
}

// Default returns the default configuration: three built-in bots
func Default() *Config {
	c := &Config{
		Seats: []SeatConfig{
			{Name: "odds", Bot: bot.NameOdds},
			{Name: "simple", Bot: bot.NameSimple},
			{Name: "max", Bot: bot.NameMax},
		},
	}
	c.applyDefaults()
	return c
}

// Load loads configuration from an HCL file. A missing file yields the
// default configuration.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file)
}

// Parse loads configuration from HCL source, using filename in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file)
}

func decode(file *hcl.File) (*Config, error) {
	var config Config
	diags := gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation == nil {
		c.Simulation = &SimulationSettings{}
	}
	if c.Simulation.Matches == 0 {
		c.Simulation.Matches = 100
	}
	if c.Simulation.StartingDice == 0 {
		c.Simulation.StartingDice = 5
	}
	if c.Simulation.LogLevel == "" {
		c.Simulation.LogLevel = "info"
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.DecisionTimeout == "" {
		c.Server.DecisionTimeout = "5s"
	}
	if c.Server.Matches == 0 {
		c.Server.Matches = 1
	}

	for i := range c.Seats {
		if c.Seats[i].Bot == "" && !c.Seats[i].Remote {
			c.Seats[i].Bot = bot.NameSimple
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Seats) < 2 {
		return fmt.Errorf("at least two seats must be configured, got %d", len(c.Seats))
	}
	if c.Simulation.Matches < 1 {
		return fmt.Errorf("simulation: matches must be positive")
	}
	if c.Simulation.StartingDice < 1 {
		return fmt.Errorf("simulation: starting dice must be positive")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation: workers cannot be negative")
	}
	if _, err := parseDuration(c.Simulation.DecisionTimeout); err != nil {
		return fmt.Errorf("simulation: decision_timeout: %w", err)
	}
	if _, err := parseDuration(c.Simulation.MatchTimeout); err != nil {
		return fmt.Errorf("simulation: match_timeout: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := parseDuration(c.Server.DecisionTimeout); err != nil {
		return fmt.Errorf("server: decision_timeout: %w", err)
	}

	names := make([]string, 0, len(c.Seats))
	for _, seat := range c.Seats {
		if slices.Contains(names, seat.Name) {
			return fmt.Errorf("seat %s: duplicate name", seat.Name)
		}
		names = append(names, seat.Name)
		if seat.Remote {
			if seat.Bot != "" {
				return fmt.Errorf("seat %s: remote seats cannot name a bot", seat.Name)
			}
			continue
		}
		if !slices.Contains(bot.Names(), seat.Bot) {
			return fmt.Errorf("seat %s: invalid bot %s", seat.Name, seat.Bot)
		}
	}

	return nil
}

// HasRemoteSeats reports whether any seat waits for a remote bot
func (c *Config) HasRemoteSeats() bool {
	return slices.ContainsFunc(c.Seats, func(s SeatConfig) bool { return s.Remote })
}

// DecisionTimeoutDuration returns the simulation decision timeout, zero if unset
func (s *SimulationSettings) DecisionTimeoutDuration() time.Duration {
	d, _ := parseDuration(s.DecisionTimeout)
	return d
}

// MatchTimeoutDuration returns the per-match timeout, zero if unset
func (s *SimulationSettings) MatchTimeoutDuration() time.Duration {
	d, _ := parseDuration(s.MatchTimeout)
	return d
}

// DecisionTimeoutDuration returns how long remote bots have per decision
func (s *ServerSettings) DecisionTimeoutDuration() time.Duration {
	d, _ := parseDuration(s.DecisionTimeout)
	return d
}

// GetServerAddress returns the full server address
func (s *ServerSettings) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
