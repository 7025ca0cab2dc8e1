package marketdata

// Observer is notified when something it depends on changes.
type Observer interface {
	Update()
}

// Observable keeps a list of observers. The zero value is ready to use.
// Not safe for concurrent use; each curve and its quotes live on one goroutine.
type Observable struct {
	observers []Observer
}

// RegisterObserver adds o unless it is already registered.
func (o *Observable) RegisterObserver(obs Observer) {
	for _, existing := range o.observers {
		if existing == obs {
			return
		}
	}
	o.observers = append(o.observers, obs)
}

// UnregisterObserver removes obs if present.
func (o *Observable) UnregisterObserver(obs Observer) {
	for i, existing := range o.observers {
		if existing == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers calls Update on a snapshot of the registered observers.
func (o *Observable) NotifyObservers() {
	snapshot := append([]Observer(nil), o.observers...)
	for _, obs := range snapshot {
		obs.Update()
	}
}

// ObserverFunc adapts a function to the Observer interface. Use a pointer so
// registration can compare identities.
type ObserverFunc struct {
	F func()
}

func (f *ObserverFunc) Update() {
	if f.F != nil {
		f.F()
	}
}
