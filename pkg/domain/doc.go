/*
Package domain contains the core models of the A.C.T. interview.

It defines the conversation state and the vocabulary shared by the state machine,
the adapters and the collaborators. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: the immutable snapshot of one interview (stage, answers, score, transcript, lifecycle).
  - Answers: the fixed superset of qualifying fields collected across the 18 stages.
  - Score: the (savings, hours) pair surfaced to the user as incentive feedback.
  - SideEffect: a host-facing instruction emitted by a transition (redirect, external page, event).
*/
package domain
