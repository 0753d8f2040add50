package device

import (
	"math"
	"reflect"
	"testing"
)

func TestNetworks_Aggregation(t *testing.T) {
	s := newTestStore(false)

	gen := draft("gen", TypeGenerator)
	out, eff := 100.0, 0.9
	gen.PowerOutput, gen.Efficiency = &out, &eff
	mustCreate(t, s, gen, "p")

	line := draft("line", TypePowerLine)
	lineEff := 0.5
	line.Efficiency = &lineEff
	mustCreate(t, s, line, "p")

	for _, id := range []string{"house1", "house2"} {
		c := draft(id, TypeConsumer)
		in := 40.0
		c.PowerInput = &in
		mustCreate(t, s, c, "p")
	}
	mustCreate(t, s, draft("lonely", TypeBattery), "p")

	for _, edge := range [][2]string{{"gen", "line"}, {"line", "house1"}, {"line", "house2"}} {
		if err := s.Connect(edge[0], edge[1], "p"); err != nil {
			t.Fatal(err)
		}
	}

	nets := s.Networks()
	if len(nets) != 2 {
		t.Fatalf("Networks() returned %d networks, want 2", len(nets))
	}

	grid := nets[0]
	if grid.ID != "net_gen" {
		t.Errorf("ID = %q, want net_gen", grid.ID)
	}
	if !reflect.DeepEqual(grid.ConnectedDevices, []string{"gen", "house1", "house2", "line"}) {
		t.Errorf("ConnectedDevices = %v", grid.ConnectedDevices)
	}
	if grid.TotalPowerGeneration != 100 || grid.TotalPowerConsumption != 80 {
		t.Errorf("generation/consumption = %v/%v, want 100/80", grid.TotalPowerGeneration, grid.TotalPowerConsumption)
	}
	if !grid.IsStable {
		t.Error("IsStable = false, want true")
	}
	wantEff := (0.9 + 0.5 + 1 + 1) / 4
	if math.Abs(grid.NetworkEfficiency-wantEff) > 1e-9 {
		t.Errorf("NetworkEfficiency = %v, want %v", grid.NetworkEfficiency, wantEff)
	}

	wantFlow := []PowerFlow{
		{From: "gen", To: "line", Amount: 90},
		{From: "line", To: "house1", Amount: 0},
		{From: "line", To: "house2", Amount: 0},
	}
	if !reflect.DeepEqual(grid.PowerFlow, wantFlow) {
		t.Errorf("PowerFlow = %+v, want %+v", grid.PowerFlow, wantFlow)
	}

	lonely := nets[1]
	if lonely.ID != "net_lonely" || len(lonely.ConnectedDevices) != 1 || len(lonely.PowerFlow) != 0 {
		t.Errorf("isolated network = %+v", lonely)
	}
}

func TestNetworks_Unstable(t *testing.T) {
	s := newTestStore(false)
	gen := draft("g", TypeSolarPanel)
	out := 10.0
	gen.PowerOutput = &out
	mustCreate(t, s, gen, "p")

	c := draft("c", TypeConsumer)
	in := 25.0
	c.PowerInput = &in
	mustCreate(t, s, c, "p")

	if err := s.Connect("g", "c", "p"); err != nil {
		t.Fatal(err)
	}

	n, ok := s.NetworkOf("c")
	if !ok {
		t.Fatal("NetworkOf(c) not found")
	}
	if n.IsStable {
		t.Errorf("IsStable = true with generation %v < consumption %v", n.TotalPowerGeneration, n.TotalPowerConsumption)
	}
	if n.ID != "net_c" {
		t.Errorf("ID = %q, want net_c", n.ID)
	}
}

func TestNetworks_SplitAfterDisconnect(t *testing.T) {
	s := newTestStore(false)
	for _, id := range []string{"a", "b"} {
		mustCreate(t, s, draft(id, TypeSwitch), "p")
	}
	if err := s.Connect("a", "b", "p"); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Networks()); got != 1 {
		t.Fatalf("connected: %d networks, want 1", got)
	}
	if err := s.Disconnect("a", "b", "p"); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Networks()); got != 2 {
		t.Fatalf("disconnected: %d networks, want 2", got)
	}
}

func TestNetworkOf_Missing(t *testing.T) {
	s := newTestStore(false)
	if _, ok := s.NetworkOf("ghost"); ok {
		t.Error("NetworkOf(ghost) found a network")
	}
	if nets := s.Networks(); len(nets) != 0 {
		t.Errorf("empty store has %d networks", len(nets))
	}
}
