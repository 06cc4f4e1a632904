package tracker

// Subscriber receives tracker notifications. Calls are made synchronously
// from the step that produced them, one at a time.
type Subscriber interface {
	OnStart()
	OnPositionUpdate(p Position)
	OnError(err error)
	OnEnd()
}

// Fanout delivers every notification to each subscriber in order.
type Fanout []Subscriber

func (f Fanout) OnStart() {
	for _, s := range f {
		s.OnStart()
	}
}

func (f Fanout) OnPositionUpdate(p Position) {
	for _, s := range f {
		s.OnPositionUpdate(p)
	}
}

func (f Fanout) OnError(err error) {
	for _, s := range f {
		s.OnError(err)
	}
}

func (f Fanout) OnEnd() {
	for _, s := range f {
		s.OnEnd()
	}
}

// Funcs adapts optional callbacks to a Subscriber. Nil callbacks are skipped.
type Funcs struct {
	Start          func()
	PositionUpdate func(p Position)
	Error          func(err error)
	End            func()
}

func (f Funcs) OnStart() {
	if f.Start != nil {
		f.Start()
	}
}

func (f Funcs) OnPositionUpdate(p Position) {
	if f.PositionUpdate != nil {
		f.PositionUpdate(p)
	}
}

func (f Funcs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f Funcs) OnEnd() {
	if f.End != nil {
		f.End()
	}
}
