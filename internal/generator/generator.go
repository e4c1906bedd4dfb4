package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/domain"
	"github.com/Mikeolab/devops-real-app/internal/service"
)

// Generator produces synthetic lead submissions shaped like contact-form bodies.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	services      []domain.ServiceType
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.NumLeads <= 0 {
		cfg.NumLeads = DefaultConfig().NumLeads
	}
	if cfg.InvalidChance < 0 {
		cfg.InvalidChance = 0
	}
	if cfg.NoteChance < 0 {
		cfg.NoteChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
		services:      domain.ServiceTypes(),
	}
}

// Generate synthesises lead payloads. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) ([]service.Payload, error) {
	payloads := make([]service.Payload, g.cfg.NumLeads)
	for i := range payloads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := service.Payload{
			"name":    g.randomFullName(),
			"phone":   g.randomPhone(),
			"service": string(g.services[g.rand.Intn(len(g.services))]),
		}
		if g.rand.Float64() < g.cfg.NoteChance {
			p["note"] = g.randomNote()
		}
		if g.rand.Float64() < g.cfg.InvalidChance {
			g.corrupt(p)
		}
		payloads[i] = p
	}
	return payloads, nil
}

// corrupt breaks p in one of the ways a real client gets it wrong.
func (g *Generator) corrupt(p service.Payload) {
	switch g.rand.Intn(4) {
	case 0:
		delete(p, "name")
	case 1:
		p["phone"] = "   "
	case 2:
		p["service"] = "consulting"
	default:
		p["note"] = g.rand.Intn(1000)
	}
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))])
}

func (g *Generator) randomPhone() string {
	prefix := g.nameFragments.dialCodes[g.rand.Intn(len(g.nameFragments.dialCodes))]
	return fmt.Sprintf("%s %03d %03d %04d", prefix, g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

func (g *Generator) randomNote() string {
	return g.nameFragments.notes[g.rand.Intn(len(g.nameFragments.notes))]
}

type nameFragments struct {
	first     []string
	last      []string
	dialCodes []string
	notes     []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:     []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Tunde", "Amaka", "Ava", "Ethan", "Zara"},
		last:      []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Okafor", "Nguyen", "Silva", "Adeyemi", "Lee"},
		dialCodes: []string{"+1", "+44", "+234", "+233", "+27"},
		notes: []string{
			"Looking to sell USDT",
			"Have Amazon gift cards to trade",
			"Need a landing page for my shop",
			"Want to rank higher on Google",
			"Please call after 5pm",
			"",
		},
	}
}
