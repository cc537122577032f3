package pipeline

// OutOfScopeMessage is returned instead of an answer when a general query
// finds nothing relevant.
const OutOfScopeMessage = `I'm DegreeFYD Assistant, specialised in Indian colleges, universities, and entrance exams. I can't help with that topic, but I'd be happy to answer questions like:

- Fees, admissions, placements, or facilities at a specific college
- Entrance exam dates, patterns, or syllabus (JEE, NEET, GATE, CAT, etc.)
- Comparing two colleges
- Finding top colleges by location or course
- College predictions based on your rank/percentile

What would you like to know?`
