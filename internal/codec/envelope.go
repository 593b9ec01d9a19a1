package codec

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// Envelope kinds. The kind string is the loader's only type discriminator,
// so these are part of the wire contract and must never be reused.
const (
	KindSyndrome   = "syndrome"
	KindDetector   = "detector"
	KindCircuit    = "circuit"
	KindChannel    = "channel"
	KindBlock      = "block"
	KindObservable = "observable"
)

// Dump wraps an artifact in its typed envelope and returns canonical
// JSON bytes. Auto-generated uuids are excluded from the payload.
func Dump(v any) ([]byte, error) {
	kind, payload, err := encode(v)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(Object{
		"kind":    String(kind),
		"payload": payload,
	})
}

// Load parses an envelope and reconstructs the concrete artifact. Fresh
// uuids are minted; internal cross-references (shared channels within a
// circuit, stabilizer-to-circuit mappings) are preserved.
func Load(data []byte) (any, error) {
	val, err := UnmarshalCanonical(data)
	if err != nil {
		return nil, err
	}
	env, ok := val.(Object)
	if !ok {
		return nil, fmt.Errorf("envelope must be a JSON object, got %T", val)
	}
	kind, err := strField(env, "kind")
	if err != nil {
		return nil, err
	}
	payload, err := objField(env, "payload")
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSyndrome:
		return loadSyndrome(payload)
	case KindDetector:
		return loadDetector(payload)
	case KindCircuit:
		return loadCircuit(payload, map[string]eka.Channel{})
	case KindChannel:
		ch, _, err := loadChannel(payload)
		return ch, err
	case KindBlock:
		return loadBlock(payload)
	case KindObservable:
		return loadObservable(payload)
	default:
		return nil, fmt.Errorf("unknown envelope kind %q", kind)
	}
}

// LoadSyndrome loads an envelope and requires it to hold a syndrome.
func LoadSyndrome(data []byte) (*interp.Syndrome, error) {
	return loadAs[*interp.Syndrome](data, KindSyndrome)
}

// LoadDetector loads an envelope and requires it to hold a detector.
func LoadDetector(data []byte) (*interp.Detector, error) {
	return loadAs[*interp.Detector](data, KindDetector)
}

// LoadCircuit loads an envelope and requires it to hold a circuit.
func LoadCircuit(data []byte) (*eka.Circuit, error) {
	return loadAs[*eka.Circuit](data, KindCircuit)
}

// LoadBlock loads an envelope and requires it to hold a block.
func LoadBlock(data []byte) (*eka.Block, error) {
	return loadAs[*eka.Block](data, KindBlock)
}

// LoadObservable loads an envelope and requires it to hold an observable.
func LoadObservable(data []byte) (*interp.Observable, error) {
	return loadAs[*interp.Observable](data, KindObservable)
}

func loadAs[T any](data []byte, kind string) (T, error) {
	var zero T
	v, err := Load(data)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("envelope holds %T, want kind %q", v, kind)
	}
	return typed, nil
}

// Payload returns an artifact's canonical payload object without the
// envelope wrapper. Useful for embedding artifacts in larger canonical
// documents (snapshots, exports).
func Payload(v any) (Object, error) {
	_, payload, err := encode(v)
	return payload, err
}

func encode(v any) (string, Object, error) {
	switch val := v.(type) {
	case *interp.Syndrome:
		return KindSyndrome, syndromeObject(val), nil
	case *interp.Detector:
		return KindDetector, detectorObject(val), nil
	case *interp.Observable:
		return KindObservable, observableObject(val), nil
	case *eka.Circuit:
		return KindCircuit, circuitObject(val), nil
	case eka.Channel:
		return KindChannel, channelObject(val, map[string]string{}), nil
	case *eka.Block:
		return KindBlock, blockObject(val), nil
	default:
		return "", nil, fmt.Errorf("no envelope kind for %T", v)
	}
}

// --- syndromes, detectors, observables ---

func cbitObject(c interp.Cbit) Object {
	return Object{"bit": String(c.Bit), "index": Int(c.Index)}
}

func cbitArray(cbits []interp.Cbit) Array {
	arr := make(Array, len(cbits))
	for i, c := range cbits {
		arr[i] = cbitObject(c)
	}
	return arr
}

func labelsObject(labels map[string]string) Object {
	obj := make(Object, len(labels))
	for k, v := range labels {
		obj[k] = String(v)
	}
	return obj
}

func syndromeObject(s *interp.Syndrome) Object {
	obj := Object{
		"stabilizer":   String(s.Stabilizer),
		"block":        String(s.Block),
		"round":        Int(s.Round),
		"measurements": cbitArray(s.Measurements),
		"corrections":  cbitArray(s.Corrections),
	}
	if len(s.Labels) > 0 {
		obj["labels"] = labelsObject(s.Labels)
	}
	return obj
}

func detectorObject(d *interp.Detector) Object {
	syndromes := make(Array, len(d.Syndromes))
	for i, s := range d.Syndromes {
		syndromes[i] = syndromeObject(s)
	}
	obj := Object{"syndromes": syndromes}
	if len(d.Labels) > 0 {
		obj["labels"] = labelsObject(d.Labels)
	}
	return obj
}

func observableObject(o *interp.Observable) Object {
	return Object{
		"operator":     String(o.Operator),
		"basis":        String(o.Basis),
		"measurements": cbitArray(o.Measurements),
	}
}

func loadCbit(v Value) (interp.Cbit, error) {
	obj, ok := v.(Object)
	if !ok {
		return interp.Cbit{}, fmt.Errorf("cbit must be an object, got %T", v)
	}
	bit, err := strField(obj, "bit")
	if err != nil {
		return interp.Cbit{}, err
	}
	index, err := intField(obj, "index")
	if err != nil {
		return interp.Cbit{}, err
	}
	return interp.Cbit{Bit: bit, Index: int(index)}, nil
}

func loadCbits(obj Object, key string) ([]interp.Cbit, error) {
	arr, err := arrField(obj, key)
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, nil
	}
	cbits := make([]interp.Cbit, len(arr))
	for i, v := range arr {
		c, err := loadCbit(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		cbits[i] = c
	}
	return cbits, nil
}

func loadLabels(obj Object) (map[string]string, error) {
	raw, ok := obj["labels"]
	if !ok {
		return nil, nil
	}
	lobj, ok := raw.(Object)
	if !ok {
		return nil, fmt.Errorf("labels must be an object, got %T", raw)
	}
	labels := make(map[string]string, len(lobj))
	for k, v := range lobj {
		s, ok := v.(String)
		if !ok {
			return nil, fmt.Errorf("label %q must be a string, got %T", k, v)
		}
		labels[k] = string(s)
	}
	return labels, nil
}

func loadSyndrome(obj Object) (*interp.Syndrome, error) {
	stabilizer, err := strField(obj, "stabilizer")
	if err != nil {
		return nil, err
	}
	block, err := strField(obj, "block")
	if err != nil {
		return nil, err
	}
	round, err := intField(obj, "round")
	if err != nil {
		return nil, err
	}
	measurements, err := loadCbits(obj, "measurements")
	if err != nil {
		return nil, err
	}
	corrections, err := loadCbits(obj, "corrections")
	if err != nil {
		return nil, err
	}
	labels, err := loadLabels(obj)
	if err != nil {
		return nil, err
	}
	s := interp.NewSyndrome(stabilizer, measurements, block, int(round), corrections)
	s.Labels = labels
	return s, nil
}

func loadDetector(obj Object) (*interp.Detector, error) {
	arr, err := arrField(obj, "syndromes")
	if err != nil {
		return nil, err
	}
	syndromes := make([]*interp.Syndrome, len(arr))
	for i, v := range arr {
		sobj, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("syndromes[%d] must be an object, got %T", i, v)
		}
		s, err := loadSyndrome(sobj)
		if err != nil {
			return nil, fmt.Errorf("syndromes[%d]: %w", i, err)
		}
		syndromes[i] = s
	}
	d := interp.NewDetector(syndromes...)
	labels, err := loadLabels(obj)
	if err != nil {
		return nil, err
	}
	d.Labels = labels
	return d, nil
}

func loadObservable(obj Object) (*interp.Observable, error) {
	operator, err := strField(obj, "operator")
	if err != nil {
		return nil, err
	}
	basis, err := strField(obj, "basis")
	if err != nil {
		return nil, err
	}
	measurements, err := loadCbits(obj, "measurements")
	if err != nil {
		return nil, err
	}
	return &interp.Observable{Operator: operator, Basis: basis, Measurements: measurements}, nil
}

// --- channels and circuits ---

// channelObject carries a payload-local "ref" instead of the channel's
// uuid, assigned in first-appearance order so that equivalent circuits
// dump to identical bytes. Loading mints a fresh uuid per ref but keeps
// every occurrence of the same ref aliased to the same new channel.
func channelObject(ch eka.Channel, refs map[string]string) Object {
	ref, ok := refs[ch.ID]
	if !ok {
		ref = fmt.Sprintf("c%d", len(refs))
		refs[ch.ID] = ref
	}
	return Object{
		"kind":  String(ch.Kind),
		"label": String(ch.Label),
		"ref":   String(ref),
	}
}

func loadChannel(obj Object) (eka.Channel, string, error) {
	kind, err := strField(obj, "kind")
	if err != nil {
		return eka.Channel{}, "", err
	}
	if k := eka.ChannelKind(kind); k != eka.Quantum && k != eka.Classical {
		return eka.Channel{}, "", fmt.Errorf("unknown channel kind %q", kind)
	}
	label, err := strField(obj, "label")
	if err != nil {
		return eka.Channel{}, "", err
	}
	ref, err := strField(obj, "ref")
	if err != nil {
		return eka.Channel{}, "", err
	}
	return eka.NewChannel(eka.ChannelKind(kind), label), ref, nil
}

func resolveChannel(v Value, refs map[string]eka.Channel) (eka.Channel, error) {
	obj, ok := v.(Object)
	if !ok {
		return eka.Channel{}, fmt.Errorf("channel must be an object, got %T", v)
	}
	ch, ref, err := loadChannel(obj)
	if err != nil {
		return eka.Channel{}, err
	}
	if existing, ok := refs[ref]; ok {
		return existing, nil
	}
	refs[ref] = ch
	return ch, nil
}

func circuitObject(c *eka.Circuit) Object {
	return circuitObjectWithRefs(c, map[string]string{})
}

func circuitObjectWithRefs(c *eka.Circuit, refs map[string]string) Object {
	channels := make(Array, len(c.Channels))
	for i, ch := range c.Channels {
		channels[i] = channelObject(ch, refs)
	}
	obj := Object{
		"name":     String(c.Name),
		"duration": Int(c.Duration),
		"channels": channels,
	}
	if !c.IsLeaf() {
		ticks := make(Array, len(c.Ticks))
		for t, tick := range c.Ticks {
			row := make(Array, len(tick))
			for i, sub := range tick {
				row[i] = circuitObjectWithRefs(sub, refs)
			}
			ticks[t] = row
		}
		obj["ticks"] = ticks
	}
	return obj
}

func loadCircuit(obj Object, refs map[string]eka.Channel) (*eka.Circuit, error) {
	name, err := strField(obj, "name")
	if err != nil {
		return nil, err
	}
	duration, err := intField(obj, "duration")
	if err != nil {
		return nil, err
	}
	chanArr, err := arrField(obj, "channels")
	if err != nil {
		return nil, err
	}
	channels := make([]eka.Channel, len(chanArr))
	for i, v := range chanArr {
		ch, err := resolveChannel(v, refs)
		if err != nil {
			return nil, fmt.Errorf("channels[%d]: %w", i, err)
		}
		channels[i] = ch
	}

	var ticks [][]*eka.Circuit
	if raw, ok := obj["ticks"]; ok {
		tickArr, ok := raw.(Array)
		if !ok {
			return nil, fmt.Errorf("ticks must be an array, got %T", raw)
		}
		ticks = make([][]*eka.Circuit, len(tickArr))
		for t, rowVal := range tickArr {
			row, ok := rowVal.(Array)
			if !ok {
				return nil, fmt.Errorf("ticks[%d] must be an array, got %T", t, rowVal)
			}
			ticks[t] = make([]*eka.Circuit, len(row))
			for i, subVal := range row {
				sobj, ok := subVal.(Object)
				if !ok {
					return nil, fmt.Errorf("ticks[%d][%d] must be an object, got %T", t, i, subVal)
				}
				sub, err := loadCircuit(sobj, refs)
				if err != nil {
					return nil, fmt.Errorf("ticks[%d][%d]: %w", t, i, err)
				}
				ticks[t][i] = sub
			}
		}
	}

	c, err := eka.NewCircuit(name, ticks,
		eka.WithChannels(channels...), eka.WithDuration(int(duration)))
	if err != nil {
		return nil, fmt.Errorf("circuit %q: %w", name, err)
	}
	return c, nil
}

// --- blocks ---

func coordValue(c eka.Coord) Array {
	return Array{Int(c[0]), Int(c[1]), Int(c[2])}
}

func coordArray(coords []eka.Coord) Array {
	arr := make(Array, len(coords))
	for i, c := range coords {
		arr[i] = coordValue(c)
	}
	return arr
}

func pauliObject(p *eka.PauliOperator) Object {
	return Object{
		"pauli":       String(p.Pauli),
		"data_qubits": coordArray(p.DataQubits),
	}
}

func blockObject(b *eka.Block) Object {
	stabilizers := make(Array, len(b.Stabilizers))
	stabRefs := make(map[string]string, len(b.Stabilizers))
	for i, s := range b.Stabilizers {
		ref := fmt.Sprintf("s%d", i)
		stabRefs[s.ID] = ref
		stabilizers[i] = Object{
			"pauli":          String(s.Pauli),
			"data_qubits":    coordArray(s.DataQubits),
			"ancilla_qubits": coordArray(s.AncillaQubits),
			"ref":            String(ref),
		}
	}
	logicalX := make(Array, len(b.LogicalXOperators))
	for i, p := range b.LogicalXOperators {
		logicalX[i] = pauliObject(p)
	}
	logicalZ := make(Array, len(b.LogicalZOperators))
	for i, p := range b.LogicalZOperators {
		logicalZ[i] = pauliObject(p)
	}
	circuits := make(Array, len(b.SyndromeCircuits))
	for i, sc := range b.SyndromeCircuits {
		circuits[i] = Object{
			"name":    String(sc.Name),
			"pauli":   String(sc.Pauli),
			"circuit": circuitObject(sc.Circuit),
		}
	}
	mapping := make(Object, len(b.StabilizerToCircuit))
	for stabID, circName := range b.StabilizerToCircuit {
		ref, ok := stabRefs[stabID]
		if !ok {
			// Dangling mapping entries have no meaning once the uuid is gone.
			continue
		}
		mapping[ref] = String(circName)
	}
	return Object{
		"label":                 String(b.Label),
		"stabilizers":           stabilizers,
		"logical_x":             logicalX,
		"logical_z":             logicalZ,
		"syndrome_circuits":     circuits,
		"stabilizer_to_circuit": mapping,
	}
}

func loadCoord(v Value) (eka.Coord, error) {
	arr, ok := v.(Array)
	if !ok || len(arr) != 3 {
		return eka.Coord{}, fmt.Errorf("coordinate must be a 3-element array")
	}
	var c eka.Coord
	for i, elem := range arr {
		n, ok := elem.(Int)
		if !ok {
			return eka.Coord{}, fmt.Errorf("coordinate[%d] must be an integer, got %T", i, elem)
		}
		c[i] = int(n)
	}
	return c, nil
}

func loadCoords(obj Object, key string) ([]eka.Coord, error) {
	arr, err := arrField(obj, key)
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, nil
	}
	coords := make([]eka.Coord, len(arr))
	for i, v := range arr {
		c, err := loadCoord(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		coords[i] = c
	}
	return coords, nil
}

func loadPauli(v Value) (*eka.PauliOperator, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("pauli operator must be an object, got %T", v)
	}
	pauli, err := strField(obj, "pauli")
	if err != nil {
		return nil, err
	}
	qubits, err := loadCoords(obj, "data_qubits")
	if err != nil {
		return nil, err
	}
	return eka.NewPauliOperator(pauli, qubits)
}

func loadPaulis(obj Object, key string) ([]*eka.PauliOperator, error) {
	arr, err := arrField(obj, key)
	if err != nil {
		return nil, err
	}
	ops := make([]*eka.PauliOperator, len(arr))
	for i, v := range arr {
		p, err := loadPauli(v)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		ops[i] = p
	}
	return ops, nil
}

func loadBlock(obj Object) (*eka.Block, error) {
	label, err := strField(obj, "label")
	if err != nil {
		return nil, err
	}

	stabArr, err := arrField(obj, "stabilizers")
	if err != nil {
		return nil, err
	}
	stabilizers := make([]*eka.Stabilizer, len(stabArr))
	stabRefs := make(map[string]string, len(stabArr))
	for i, v := range stabArr {
		sobj, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("stabilizers[%d] must be an object, got %T", i, v)
		}
		pauli, err := strField(sobj, "pauli")
		if err != nil {
			return nil, err
		}
		data, err := loadCoords(sobj, "data_qubits")
		if err != nil {
			return nil, err
		}
		ancilla, err := loadCoords(sobj, "ancilla_qubits")
		if err != nil {
			return nil, err
		}
		ref, err := strField(sobj, "ref")
		if err != nil {
			return nil, err
		}
		stab, err := eka.NewStabilizer(pauli, data, ancilla)
		if err != nil {
			return nil, fmt.Errorf("stabilizers[%d]: %w", i, err)
		}
		stabilizers[i] = stab
		stabRefs[ref] = stab.ID
	}

	logicalX, err := loadPaulis(obj, "logical_x")
	if err != nil {
		return nil, err
	}
	logicalZ, err := loadPaulis(obj, "logical_z")
	if err != nil {
		return nil, err
	}

	circArr, err := arrField(obj, "syndrome_circuits")
	if err != nil {
		return nil, err
	}
	circuits := make([]*eka.SyndromeCircuit, len(circArr))
	for i, v := range circArr {
		cobj, ok := v.(Object)
		if !ok {
			return nil, fmt.Errorf("syndrome_circuits[%d] must be an object, got %T", i, v)
		}
		name, err := strField(cobj, "name")
		if err != nil {
			return nil, err
		}
		pauli, err := strField(cobj, "pauli")
		if err != nil {
			return nil, err
		}
		inner, err := objField(cobj, "circuit")
		if err != nil {
			return nil, err
		}
		// Each template has its own channel namespace.
		circuit, err := loadCircuit(inner, map[string]eka.Channel{})
		if err != nil {
			return nil, fmt.Errorf("syndrome_circuits[%d]: %w", i, err)
		}
		circuits[i] = &eka.SyndromeCircuit{Name: name, Pauli: pauli, Circuit: circuit}
	}

	mappingObj, err := objField(obj, "stabilizer_to_circuit")
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]string, len(mappingObj))
	for ref, v := range mappingObj {
		name, ok := v.(String)
		if !ok {
			return nil, fmt.Errorf("stabilizer_to_circuit[%q] must be a string, got %T", ref, v)
		}
		newID, ok := stabRefs[ref]
		if !ok {
			return nil, fmt.Errorf("stabilizer_to_circuit references unknown stabilizer %q", ref)
		}
		mapping[newID] = string(name)
	}

	return eka.NewBlock(label, stabilizers, logicalX, logicalZ, circuits, mapping)
}

// --- field accessors ---

func strField(obj Object, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("field %q must be a string, got %T", key, v)
	}
	return string(s), nil
}

func intField(obj Object, key string) (int64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing field %q", key)
	}
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("field %q must be an integer, got %T", key, v)
	}
	return int64(n), nil
}

func arrField(obj Object, key string) (Array, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	arr, ok := v.(Array)
	if !ok {
		return nil, fmt.Errorf("field %q must be an array, got %T", key, v)
	}
	return arr, nil
}

func objField(obj Object, key string) (Object, error) {
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	o, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("field %q must be an object, got %T", key, v)
	}
	return o, nil
}
