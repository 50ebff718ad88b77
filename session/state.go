package session

import (
	"errors"
	"fmt"
	"sync"

	"alightgram/service"
	"alightgram/subscriber"
)

type State string

const (
	StateAuth           State = "AUTH"
	StateFeed           State = "FEED"
	StateSearch         State = "SEARCH"
	StateAddProject     State = "ADD_PROJECT"
	StateProfile        State = "PROFILE"
	StateProjectDetails State = "PROJECT_DETAILS"
	StateChatList       State = "CHAT_LIST"
	StateChatRoom       State = "CHAT_ROOM"
)

type Event string

const (
	EventSignedIn     Event = "signed_in"
	EventSignedOut    Event = "signed_out"
	EventOpenFeed     Event = "open_feed"
	EventOpenSearch   Event = "open_search"
	EventOpenComposer Event = "open_composer"
	EventOpenProfile  Event = "open_profile"
	EventOpenProject  Event = "open_project"
	EventOpenChats    Event = "open_chats"
	EventOpenChat     Event = "open_chat"
	EventBack         Event = "back"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrMissingArgument   = errors.New("missing event argument")
)

// View is the state plus whatever the state is about: the profile being
// viewed, the open project or the chat peer.
type View struct {
	State  State  `json:"state"`
	UID    string `json:"uid,omitempty"`
	Target string `json:"target,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
}

// SignedIn reports whether the view belongs to an authenticated user.
func (v View) SignedIn() bool {
	return v.State != StateAuth && v.UID != ""
}

// Subscriptions lists the realtime paths the view keeps open.
func (v View) Subscriptions() []string {
	if !v.SignedIn() {
		return nil
	}

	paths := []string{subscriber.NotificationsPath(v.UID)}
	switch v.State {
	case StateProjectDetails:
		paths = append(paths, service.CommentsPath(v.Target))
	case StateChatList:
		paths = append(paths, "status")
	case StateChatRoom:
		paths = append(paths, service.MessagesPath(v.ChatID))
	}
	return paths
}

// navBar is reachable from every state that shows the bottom navigation.
var navBar = map[Event]State{
	EventOpenFeed:     StateFeed,
	EventOpenSearch:   StateSearch,
	EventOpenComposer: StateAddProject,
	EventOpenProfile:  StateProfile,
}

var transitions = map[State]map[Event]State{
	StateFeed: withNavBar(map[Event]State{
		EventOpenProject: StateProjectDetails,
		EventOpenChats:   StateChatList,
	}),
	StateSearch: withNavBar(map[Event]State{
		EventOpenProject: StateProjectDetails,
		EventBack:        StateFeed,
	}),
	StateProfile: withNavBar(map[Event]State{
		EventOpenProject: StateProjectDetails,
		EventOpenChat:    StateChatRoom,
		EventBack:        StateFeed,
	}),
	StateAddProject: {
		EventOpenFeed: StateFeed,
		EventBack:     StateFeed,
	},
	StateProjectDetails: {
		EventOpenProfile: StateProfile,
		EventBack:        StateFeed,
	},
	StateChatList: {
		EventOpenFeed: StateFeed,
		EventOpenChat: StateChatRoom,
		EventBack:     StateFeed,
	},
	StateChatRoom: {
		EventBack: StateChatList,
	},
}

func withNavBar(extra map[Event]State) map[Event]State {
	out := make(map[Event]State, len(navBar)+len(extra))
	for e, s := range navBar {
		out[e] = s
	}
	for e, s := range extra {
		out[e] = s
	}
	return out
}

// Machine holds one connection's view. It starts in AUTH.
type Machine struct {
	mu   sync.Mutex
	view View
}

func NewMachine() *Machine {
	return &Machine{view: View{State: StateAuth}}
}

func (m *Machine) Current() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Fire applies event with its argument. On error the view is unchanged.
func (m *Machine) Fire(event Event, arg string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := transition(m.view, event, arg)
	if err != nil {
		return m.view, err
	}
	m.view = next
	return next, nil
}

func transition(cur View, event Event, arg string) (View, error) {
	switch event {
	case EventSignedIn:
		if cur.State != StateAuth {
			return cur, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, cur.State)
		}
		if arg == "" {
			return cur, fmt.Errorf("%w: %s needs a uid", ErrMissingArgument, event)
		}
		return View{State: StateFeed, UID: arg}, nil
	case EventSignedOut:
		if cur.State == StateAuth {
			return cur, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, cur.State)
		}
		return View{State: StateAuth}, nil
	}

	target, ok := transitions[cur.State][event]
	if !ok {
		return cur, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, cur.State)
	}

	next := View{State: target, UID: cur.UID}
	switch event {
	case EventOpenProfile:
		next.Target = arg
		if next.Target == "" {
			next.Target = cur.UID
		}
	case EventOpenProject:
		if arg == "" {
			return cur, fmt.Errorf("%w: %s needs a project id", ErrMissingArgument, event)
		}
		next.Target = arg
	case EventOpenChat:
		if arg == "" || arg == cur.UID {
			return cur, fmt.Errorf("%w: %s needs another user's uid", ErrMissingArgument, event)
		}
		if !service.ValidChatUID(arg) {
			return cur, fmt.Errorf("%w: %s got an invalid uid %q", ErrMissingArgument, event, arg)
		}
		next.Target = arg
		next.ChatID = service.ChatID(cur.UID, arg)
	}
	return next, nil
}

// Diff returns the paths present only in next and only in prev.
func Diff(prev, next []string) (added, removed []string) {
	seen := make(map[string]bool, len(prev))
	for _, p := range prev {
		seen[p] = true
	}
	keep := make(map[string]bool, len(next))
	for _, p := range next {
		keep[p] = true
		if !seen[p] {
			added = append(added, p)
		}
	}
	for _, p := range prev {
		if !keep[p] {
			removed = append(removed, p)
		}
	}
	return added, removed
}
