package protocol

import "fmt"

// Query is one variant of the query union carried by a QueryMessage. Variant names end with
// "Query" and the matching answer variant has the same prefix and ends with "Answer".
type Query interface {
	message
	queryCase() caseNumber
}

// Answer is one variant of the answer union carried by an AnswerMessage.
type Answer interface {
	message
	answerCase() caseNumber
}

const (
	queryJitsiJwt caseNumber = iota + 2
	queryJoinBBBMeeting
)

const (
	answerError caseNumber = iota + 2
	answerJitsiJwt
	answerJoinBBBMeeting
)

var queryCases = map[caseNumber]oneofCase[Query]{
	queryJitsiJwt:       {"jitsiJwtQuery", func() Query { return &JitsiJwtQuery{} }},
	queryJoinBBBMeeting: {"joinBBBMeetingQuery", func() Query { return &JoinBBBMeetingQuery{} }},
}

var answerCases = map[caseNumber]oneofCase[Answer]{
	answerError:          {"error", func() Answer { return &ErrorAnswer{} }},
	answerJitsiJwt:       {"jitsiJwtAnswer", func() Answer { return &JitsiJwtAnswer{} }},
	answerJoinBBBMeeting: {"joinBBBMeetingAnswer", func() Answer { return &JoinBBBMeetingAnswer{} }},
}

// QueryKind returns the wire name of a query variant, e.g. "jitsiJwtQuery".
func QueryKind(q Query) string {
	if q == nil {
		return ""
	}
	if c, ok := queryCases[q.queryCase()]; ok {
		return c.name
	}
	return fmt.Sprintf("query case %d", q.queryCase())
}

// AnswerKind returns the wire name of an answer variant, e.g. "jitsiJwtAnswer".
func AnswerKind(a Answer) string {
	if a == nil {
		return ""
	}
	if c, ok := answerCases[a.answerCase()]; ok {
		return c.name
	}
	return fmt.Sprintf("answer case %d", a.answerCase())
}

// QueryMessage is a request correlated with its AnswerMessage by ID.
type QueryMessage struct {
	ID    uint32
	Query Query
}

func (*QueryMessage) clientCase() caseNumber { return clientQuery }

func (m *QueryMessage) appendTo(e *encoder) {
	e.uint32(1, m.ID)
	if m.Query != nil {
		e.message(m.Query.queryCase(), m.Query)
	}
}

func (m *QueryMessage) unmarshal(b []byte) error {
	var id uint32
	err := eachField(b, func(f field) error {
		if f.num == 1 {
			id = f.uint32()
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.ID = id
	m.Query, err = decodeOneof(b, queryCases)
	return err
}

// AnswerMessage answers the QueryMessage with the same ID. A nil Answer is a malformed answer.
type AnswerMessage struct {
	ID     uint32
	Answer Answer
}

func (*AnswerMessage) serverCase() caseNumber { return serverAnswer }

func (m *AnswerMessage) appendTo(e *encoder) {
	e.uint32(1, m.ID)
	if m.Answer != nil {
		e.message(m.Answer.answerCase(), m.Answer)
	}
}

func (m *AnswerMessage) unmarshal(b []byte) error {
	var id uint32
	err := eachField(b, func(f field) error {
		if f.num == 1 {
			id = f.uint32()
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.ID = id
	m.Answer, err = decodeOneof(b, answerCases)
	return err
}

type JitsiJwtQuery struct {
	JitsiRoom string
}

func (*JitsiJwtQuery) queryCase() caseNumber { return queryJitsiJwt }

func (m *JitsiJwtQuery) appendTo(e *encoder) {
	e.string(1, m.JitsiRoom)
}

func (m *JitsiJwtQuery) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.JitsiRoom = f.string()
		}
		return nil
	})
}

type JoinBBBMeetingQuery struct {
	MeetingID      string
	LocalMeetingID string
	MeetingName    string
}

func (*JoinBBBMeetingQuery) queryCase() caseNumber { return queryJoinBBBMeeting }

func (m *JoinBBBMeetingQuery) appendTo(e *encoder) {
	e.string(1, m.MeetingID)
	e.string(2, m.LocalMeetingID)
	e.string(3, m.MeetingName)
}

func (m *JoinBBBMeetingQuery) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.MeetingID = f.string()
		case 2:
			m.LocalMeetingID = f.string()
		case 3:
			m.MeetingName = f.string()
		}
		return nil
	})
}

// ErrorAnswer is the application-level rejection of a query.
type ErrorAnswer struct {
	Message string
}

func (*ErrorAnswer) answerCase() caseNumber { return answerError }

func (m *ErrorAnswer) appendTo(e *encoder) {
	e.string(1, m.Message)
}

func (m *ErrorAnswer) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Message = f.string()
		}
		return nil
	})
}

type JitsiJwtAnswer struct {
	JWT string
	URL string
}

func (*JitsiJwtAnswer) answerCase() caseNumber { return answerJitsiJwt }

func (m *JitsiJwtAnswer) appendTo(e *encoder) {
	e.string(1, m.JWT)
	e.string(2, m.URL)
}

func (m *JitsiJwtAnswer) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.JWT = f.string()
		case 2:
			m.URL = f.string()
		}
		return nil
	})
}

type JoinBBBMeetingAnswer struct {
	MeetingID string
	ClientURL string
}

func (*JoinBBBMeetingAnswer) answerCase() caseNumber { return answerJoinBBBMeeting }

func (m *JoinBBBMeetingAnswer) appendTo(e *encoder) {
	e.string(1, m.MeetingID)
	e.string(2, m.ClientURL)
}

func (m *JoinBBBMeetingAnswer) unmarshal(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.MeetingID = f.string()
		case 2:
			m.ClientURL = f.string()
		}
		return nil
	})
}
