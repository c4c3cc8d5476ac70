package temporal

import "testing"

func TestCreateSegmentEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewConnections(4, 2, 8)
	s0 := c.CreateSegment(0)
	c.StartNewIteration()
	s1 := c.CreateSegment(0)
	c.CreateSynapse(s1, 2, 0.5)
	c.StartNewIteration()
	c.RecordSegmentActivity(s0)

	c.CreateSegment(0)

	if got := c.NumSegmentsForCell(0); got != 2 {
		t.Fatalf("expected 2 segments on cell, got %d", got)
	}
	if got := c.NumSynapses(); got != 0 {
		t.Fatalf("evicted segment should take its synapses, %d left", got)
	}
	if segs := c.SegmentsForCell(0); segs[0].ID != s0 {
		t.Fatalf("expected %d to survive, got %v", s0, segs)
	}
}

func TestCreateSynapseEvictsWeakest(t *testing.T) {
	c := NewConnections(8, 4, 3)
	seg := c.CreateSegment(0)
	c.CreateSynapse(seg, 1, 0.3)
	c.CreateSynapse(seg, 2, 0.1)
	c.CreateSynapse(seg, 3, 0.5)
	c.CreateSynapse(seg, 4, 0.4)

	syns := c.SynapsesForSegment(seg)
	if len(syns) != 3 {
		t.Fatalf("expected 3 synapses, got %d", len(syns))
	}
	for _, s := range syns {
		if s.Presynaptic == 2 {
			t.Fatalf("weakest synapse was not evicted: %v", syns)
		}
	}
}

func TestComputeActivity(t *testing.T) {
	c := NewConnections(8, 4, 8)
	seg := c.CreateSegment(5)
	c.CreateSynapse(seg, 1, 0.6)
	c.CreateSynapse(seg, 2, 0.2)
	c.CreateSynapse(seg, 3, 0.9)

	connected, potential := c.ComputeActivity([]int{1, 2}, 0.5)
	if connected[seg] != 1 || potential[seg] != 2 {
		t.Fatalf("connected=%d potential=%d", connected[seg], potential[seg])
	}
}

func TestDestroySegmentReleasesSourceIndex(t *testing.T) {
	c := NewConnections(4, 4, 4)
	seg := c.CreateSegment(0)
	c.CreateSynapse(seg, 1, 0.9)
	c.DestroySegment(seg)
	if c.NumSegments() != 0 || c.NumSynapses() != 0 {
		t.Fatalf("segments=%d synapses=%d", c.NumSegments(), c.NumSynapses())
	}
	connected, potential := c.ComputeActivity([]int{1}, 0.5)
	for i := range connected {
		if connected[i] != 0 || potential[i] != 0 {
			t.Fatalf("stale activity on segment %d", i)
		}
	}
}
