/*
Package ports defines the driven ports (interfaces) of the interview engine.

These interfaces decouple the state machine from external implementations, allowing
sessions to live in memory, on disk or in Redis, and collaborator calls to reach
SQLite, a log or a test double.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading interview Sessions.
  - DistributedLocker: Provides distributed locking for concurrent session access across replicas.
  - AnswerPersister, EventRecorder, ResumeMailer: Best-effort collaborators invoked from side effects.
*/
package ports
