package workouts

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Field is a bit in an ExercisePatch mask.
type Field uint8

const (
	FieldName Field = 1 << iota
	FieldSets
	FieldReps
	FieldWeight
	FieldEquipment
	FieldNotes
)

var allFields = []Field{FieldName, FieldSets, FieldReps, FieldWeight, FieldEquipment, FieldNotes}

func (f Field) Column() string {
	switch f {
	case FieldName:
		return "exercise_name"
	case FieldSets:
		return "sets"
	case FieldReps:
		return "reps"
	case FieldWeight:
		return "weight"
	case FieldEquipment:
		return "equipment"
	case FieldNotes:
		return "notes"
	default:
		return ""
	}
}

func fieldByColumn(column string) (Field, bool) {
	for _, f := range allFields {
		if f.Column() == column {
			return f, true
		}
	}
	return 0, false
}

// ExercisePatch changes the fields in its mask to the values it carries.
// A masked field with a nil value is cleared, unmasked fields are untouched.
type ExercisePatch struct {
	mask   Field
	values ExerciseData
}

func (p ExercisePatch) Has(f Field) bool {
	return p.mask&f != 0
}

func (p ExercisePatch) IsEmpty() bool {
	return p.mask == 0
}

// Fields returns the masked fields in column order.
func (p ExercisePatch) Fields() []Field {
	var fields []Field
	for _, f := range allFields {
		if p.Has(f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func (p ExercisePatch) SetName(name string) ExercisePatch {
	p.mask |= FieldName
	p.values.Name = name
	return p
}

func (p ExercisePatch) SetSets(sets *int) ExercisePatch {
	p.mask |= FieldSets
	p.values.Sets = sets
	return p
}

func (p ExercisePatch) SetReps(reps *int) ExercisePatch {
	p.mask |= FieldReps
	p.values.Reps = reps
	return p
}

func (p ExercisePatch) SetWeight(weight *float64) ExercisePatch {
	p.mask |= FieldWeight
	p.values.Weight = weight
	return p
}

func (p ExercisePatch) SetEquipment(equipment *Equipment) ExercisePatch {
	p.mask |= FieldEquipment
	p.values.Equipment = equipment
	return p
}

func (p ExercisePatch) SetNotes(notes *string) ExercisePatch {
	p.mask |= FieldNotes
	p.values.Notes = notes
	return p
}

// Normalize trims the carried values the way ExerciseData.Normalize does.
// Blank notes in the mask clear the field.
func (p ExercisePatch) Normalize() ExercisePatch {
	p.values = p.values.Normalize()
	return p
}

// Apply returns d with the masked fields replaced.
func (p ExercisePatch) Apply(d ExerciseData) ExerciseData {
	v := p.values.clone()
	if p.Has(FieldName) {
		d.Name = v.Name
	}
	if p.Has(FieldSets) {
		d.Sets = v.Sets
	}
	if p.Has(FieldReps) {
		d.Reps = v.Reps
	}
	if p.Has(FieldWeight) {
		d.Weight = v.Weight
	}
	if p.Has(FieldEquipment) {
		d.Equipment = v.Equipment
	}
	if p.Has(FieldNotes) {
		d.Notes = v.Notes
	}
	return d
}

// Columns maps the masked fields to their column values, cleared fields map to nil.
func (p ExercisePatch) Columns() map[string]any {
	columns := make(map[string]any, len(allFields))
	if p.Has(FieldName) {
		columns[FieldName.Column()] = p.values.Name
	}
	if p.Has(FieldSets) {
		columns[FieldSets.Column()] = p.values.Sets
	}
	if p.Has(FieldReps) {
		columns[FieldReps.Column()] = p.values.Reps
	}
	if p.Has(FieldWeight) {
		columns[FieldWeight.Column()] = p.values.Weight
	}
	if p.Has(FieldEquipment) {
		columns[FieldEquipment.Column()] = p.values.Equipment
	}
	if p.Has(FieldNotes) {
		columns[FieldNotes.Column()] = p.values.Notes
	}
	return columns
}

// ParsePatch reads a JSON object of column -> value. Keys present with a
// null value clear the field; unknown keys are rejected.
func ParsePatch(data []byte) (ExercisePatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ExercisePatch{}, fmt.Errorf("unmarshal patch: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var p ExercisePatch
	for _, key := range keys {
		f, ok := fieldByColumn(key)
		if !ok {
			return ExercisePatch{}, &ValidationError{Field: key, Reason: "unknown field"}
		}
		value := raw[key]
		var err error
		switch f {
		case FieldName:
			var name *string
			if err = json.Unmarshal(value, &name); err == nil {
				if name == nil {
					return ExercisePatch{}, &ValidationError{Field: key, Reason: "cannot be cleared"}
				}
				p = p.SetName(*name)
			}
		case FieldSets:
			var sets *int
			if err = json.Unmarshal(value, &sets); err == nil {
				p = p.SetSets(sets)
			}
		case FieldReps:
			var reps *int
			if err = json.Unmarshal(value, &reps); err == nil {
				p = p.SetReps(reps)
			}
		case FieldWeight:
			var weight *float64
			if err = json.Unmarshal(value, &weight); err == nil {
				p = p.SetWeight(weight)
			}
		case FieldEquipment:
			var equipment *Equipment
			if err = json.Unmarshal(value, &equipment); err == nil {
				p = p.SetEquipment(equipment)
			}
		case FieldNotes:
			var notes *string
			if err = json.Unmarshal(value, &notes); err == nil {
				p = p.SetNotes(notes)
			}
		}
		if err != nil {
			return ExercisePatch{}, &ValidationError{Field: key, Reason: err.Error()}
		}
	}

	return p, nil
}
