// Package interview wires the scripted interview onto the graph engine.
//
// The conversation has four input stages (identity, topic, difficulty and the
// question loop). Each stage is an "ask" node that emits a prompt followed by an
// interrupt-before "check" node that classifies the student's reply, stores the
// stage outcome in Slots.Outcome and lets a typed router pick the next node.
//
//	greet -> check_identity -> ask_topic -> check_topic -> ask_difficulty ->
//	check_difficulty -> prepare_questions -> ask_question -> check_answer -> ...
//
// Every collaborator call is made through retry.Do, so a failing Classifier or
// Generator degrades into a scripted fallback rather than an error.
package interview
