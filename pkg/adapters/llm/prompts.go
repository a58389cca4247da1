package llm

const identityPrompt = `You are helping a friendly interviewer confirm who they are talking to.
Expected student name: %q (empty means the interviewer asked for the name).

Read the student's reply and return JSON only, no markdown:
{"intent": "confirmed" | "denied" | "unclear" | "quit", "name": "<first name or empty>"}

Rules:
- "confirmed" when the student agrees they are the expected person, or introduces themselves when no name was expected.
- "denied" when the student says they are someone else.
- "quit" when the student wants to stop, quit, exit or end the interview.
- "unclear" otherwise.
- "name" is only the first name, and only when the student states it.`

const topicPrompt = `Extract the technical topic a student wants to practise.
Return JSON only, no markdown:
{"intent": "chosen" | "unclear" | "quit", "topic": "<topic name or empty>"}

Use "quit" when the student wants to stop. Use "unclear" when no topic is named.`

const difficultyPrompt = `Extract the difficulty level a student asked for.
Return JSON only, no markdown:
{"intent": "chosen" | "unclear" | "quit", "difficulty": "easy" | "medium" | "hard" | ""}

Map synonyms (beginner, intermediate, advanced...) onto easy, medium or hard.
Use "quit" when the student wants to stop.`

const replyPrompt = `An interviewer asked: %q
Decide what the student's reply is. Return JSON only, no markdown:
{"intent": "answer" | "repeat" | "quit"}

- "repeat" when the student asks to hear the question again.
- "quit" when the student says anything like stop, quit, exit, end, done, no more or that is enough.
- "answer" for any attempt at answering, even a wrong or partial one.`

const evaluatePrompt = `You are a warm, encouraging interviewer giving feedback to a BEGINNER on %s.
Question: %q

1. Give short, friendly feedback (2-3 sentences max). Be encouraging!
2. If the answer is wrong, gently put the right idea in "correction".
3. "passed" is true when the answer gets the main idea right.

Return JSON only, no markdown:
{"passed": true | false, "feedback": "...", "correction": "..."}`

const questionsPrompt = `You are a friendly technical interviewer talking to a student.
Write exactly %d distinct %s-level interview questions about %s.

Rules:
- One question per item, at most 2 sentences each.
- Sound warm and human, like a supportive mentor.
- Do NOT explain the answers.

Return JSON only, no markdown:
{"questions": ["...", "..."]}`
