package model

// Board is the in-memory form of the whole tasks file: an ordered list
// of sections, each holding an ordered list of tasks. Order is
// meaningful in both dimensions and survives round-trips through disk.
type Board struct {
	Order    []string
	Sections map[string][]*Task
}

func NewBoard() *Board {
	return &Board{Sections: map[string][]*Task{}}
}

// EnsureSection registers a section, preserving first-seen order.
func (b *Board) EnsureSection(name string) {
	if _, ok := b.Sections[name]; ok {
		return
	}
	b.Sections[name] = []*Task{}
	b.Order = append(b.Order, name)
}

// Find returns the task and the section holding it.
func (b *Board) Find(id TaskID) (*Task, string, bool) {
	for _, name := range b.Order {
		for _, t := range b.Sections[name] {
			if t.ID == id {
				return t, name, true
			}
		}
	}
	return nil, "", false
}

// Remove detaches the task from whatever section holds it.
func (b *Board) Remove(id TaskID) (*Task, string, bool) {
	for _, name := range b.Order {
		tasks := b.Sections[name]
		for i, t := range tasks {
			if t.ID == id {
				b.Sections[name] = append(tasks[:i:i], tasks[i+1:]...)
				return t, name, true
			}
		}
	}
	return nil, "", false
}

// Insert places the task at index within the section, clamping the
// index into range. The section is created if missing.
func (b *Board) Insert(section string, index int, t *Task) {
	b.EnsureSection(section)
	tasks := b.Sections[section]
	if index < 0 || index > len(tasks) {
		index = len(tasks)
	}
	tasks = append(tasks, nil)
	copy(tasks[index+1:], tasks[index:])
	tasks[index] = t
	b.Sections[section] = tasks
}

// Append adds the task to the end of the section.
func (b *Board) Append(section string, t *Task) {
	b.EnsureSection(section)
	b.Sections[section] = append(b.Sections[section], t)
}
